package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/api/handler"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/processor"
	"resume-matcher-go/internal/storage"
)

func newTestEngine(t *testing.T) *server.Hertz {
	t.Helper()
	text, err := parser.NewFileTextExtractor(context.Background())
	require.NoError(t, err)

	proc, err := processor.NewMatchProcessor(processor.NewComponents(
		processor.WithRecordStore(storage.NewMemoryStore()),
		processor.WithTextExtractor(text),
		processor.WithFieldExtractor(matcher.MustDefaultExtractor()),
		processor.WithRanker(matcher.NewRanker(matcher.NewTFIDFStrategy(0))),
	), processor.NewSettings(processor.WithMaxUploadBytes(1<<20)))
	require.NoError(t, err)

	mh := handler.NewMatchHandler(proc)
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	api := h.Group("/api/v1")
	api.POST("/resumes", mh.HandleUploadResume)
	api.GET("/resumes/:id", mh.HandleGetResume)
	api.DELETE("/resumes/:id", mh.HandleDeleteResume)
	api.POST("/job-descriptions", mh.HandleUploadJobDescription)
	api.POST("/match", mh.HandleMatch)
	api.POST("/match-all", mh.HandleMatchAll)
	api.GET("/stats", mh.HandleStats)
	return h
}

// multipartBody 构造只含一个 file 字段的表单
func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func uploadResume(t *testing.T, h *server.Hertz, filename, content string) *ut.ResponseRecorder {
	body, ct := multipartBody(t, filename, content)
	return ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/resumes",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct})
}

func uploadJob(t *testing.T, h *server.Hertz, form url.Values) *ut.ResponseRecorder {
	enc := form.Encode()
	return ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/job-descriptions",
		&ut.Body{Body: strings.NewReader(enc), Len: len(enc)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"})
}

func postJSON(h *server.Hertz, path, body string) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, consts.MethodPost, path,
		&ut.Body{Body: strings.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestStatusOf(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("outer: %w", err) }
	cases := []struct {
		err  error
		want int
	}{
		{nil, consts.StatusOK},
		{wrap(storage.ErrNotFound), consts.StatusNotFound},
		{wrap(parser.ErrUnsupportedFormat), consts.StatusBadRequest},
		{wrap(parser.ErrExtractionFailure), consts.StatusBadRequest},
		{wrap(processor.ErrInvalidInput), consts.StatusBadRequest},
		{wrap(matcher.ErrInvalidTopK), consts.StatusBadRequest},
		{wrap(matcher.ErrEmptyCorpus), consts.StatusBadRequest},
		{wrap(processor.ErrFileTooLarge), consts.StatusRequestEntityTooLarge},
		{errors.New("boom"), consts.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, handler.StatusOf(tc.err), "%v", tc.err)
	}
}

func TestHandleUploadResume(t *testing.T) {
	h := newTestEngine(t)

	w := uploadResume(t, h, "jane.txt", "Jane Doe\njane@example.com\nGo developer with 4 years of experience. Docker, Kubernetes.")
	resp := w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))

	out := decode(t, resp.Body())
	assert.Equal(t, true, out["success"])
	resume := out["resume"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", resume["email"])
	assert.Equal(t, float64(4), resume["experience_years"])
	assert.Equal(t, "jane.txt", resume["file_name"])
	assert.ElementsMatch(t, []interface{}{"Go", "Docker", "Kubernetes"}, resume["skills"])
}

func TestHandleUploadResume_Errors(t *testing.T) {
	h := newTestEngine(t)

	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/resumes", nil)
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())

	w = uploadResume(t, h, "photo.png", "not a resume")
	resp := w.Result()
	assert.Equal(t, consts.StatusBadRequest, resp.StatusCode())
	out := decode(t, resp.Body())
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "pdf")

	w = uploadResume(t, h, "empty.txt", "   \n ")
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
}

func TestHandleUploadJobDescription(t *testing.T) {
	h := newTestEngine(t)

	w := uploadJob(t, h, url.Values{"title": {"Go Engineer"}, "description": {"Build services in Go"}, "skills": {"Go, Docker,,"}})
	resp := w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))
	jd := decode(t, resp.Body())["job_description"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Go", "Docker"}, jd["skills"])

	w = uploadJob(t, h, url.Values{"title": {"Go Engineer"}})
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
}

func TestHandleMatch(t *testing.T) {
	h := newTestEngine(t)

	w := postJSON(h, "/api/v1/match", `{"job_description_id":"missing"}`)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())

	w = uploadJob(t, h, url.Values{"title": {"Go Engineer"}, "description": {"Go developer for Kubernetes platform"}, "skills": {"Go,Kubernetes"}})
	jobID := decode(t, w.Result().Body())["job_description"].(map[string]interface{})["id"].(string)

	w = postJSON(h, "/api/v1/match", fmt.Sprintf(`{"job_description_id":%q}`, jobID))
	resp := w.Result()
	assert.Equal(t, consts.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, processor.DetailNoResumes, decode(t, resp.Body())["error"])

	uploadResume(t, h, "a.txt", "Go developer with 5 years of experience on Kubernetes")
	uploadResume(t, h, "b.txt", "Accountant experienced with Excel and PowerPoint")

	w = postJSON(h, "/api/v1/match", fmt.Sprintf(`{"job_description_id":%q,"top_k":1}`, jobID))
	resp = w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))
	out := decode(t, resp.Body())
	assert.Equal(t, float64(2), out["total_candidates"])
	assert.Equal(t, float64(1), out["matched_candidates"])
	first := out["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "a.txt", first["file_name"])
	assert.Equal(t, float64(1), first["rank"])
	assert.ElementsMatch(t, []interface{}{"Go", "Kubernetes"}, first["matched_skills"])

	for _, body := range []string{`{"job_description_id":"x","top_k":0}`, `{"top_k":3}`, `not json`} {
		w = postJSON(h, "/api/v1/match", body)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode(), body)
	}
}

func TestHandleMatchAll(t *testing.T) {
	h := newTestEngine(t)

	w := postJSON(h, "/api/v1/match-all", "")
	resp := w.Result()
	assert.Equal(t, consts.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, processor.DetailNoJobs, decode(t, resp.Body())["error"])

	var ids []string
	for _, title := range []string{"Go Engineer", "Data Scientist"} {
		w = uploadJob(t, h, url.Values{"title": {title}, "description": {title + " role with Python and Go"}})
		ids = append(ids, decode(t, w.Result().Body())["job_description"].(map[string]interface{})["id"].(string))
	}
	uploadResume(t, h, "a.txt", "Python and Go developer")

	w = postJSON(h, "/api/v1/match-all?top_k=3", "")
	resp = w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))

	var out handler.MatchAllResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.TotalJobDescriptions)
	assert.Equal(t, 1, out.TotalCandidates)
	assert.Equal(t, ids, out.Order)
	for _, id := range ids {
		require.Contains(t, out.Results, id)
		assert.Len(t, out.Results[id].Results, 1)
	}

	w = postJSON(h, "/api/v1/match-all?top_k=0", "")
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
}

func TestHandleDeleteResume(t *testing.T) {
	h := newTestEngine(t)

	w := uploadResume(t, h, "a.txt", "Go developer")
	id := decode(t, w.Result().Body())["resume"].(map[string]interface{})["id"].(string)

	w = ut.PerformRequest(h.Engine, consts.MethodDelete, "/api/v1/resumes/"+id, nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/resumes/"+id, nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, consts.MethodDelete, "/api/v1/resumes/"+id, nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/stats", nil)
	stats := decode(t, w.Result().Body())["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total_resumes"])
	assert.Equal(t, matcher.StrategyTFIDF, stats["model_type"])
}
