package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/metrics"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/types"
)

// fakeText 只支持 txt，内容原样返回
type fakeText struct {
	err error
}

func (f fakeText) Extract(_ context.Context, filename string, data []byte) (string, string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "txt" {
		return "", "", fmt.Errorf("%w: %q", parser.ErrUnsupportedFormat, ext)
	}
	if f.err != nil {
		return "", ext, f.err
	}
	return string(data), ext, nil
}

func (fakeText) SupportedFormats() []string { return []string{"txt"} }

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []storage.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, ev storage.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev.Type = routingKey
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// recordingArchive 内存归档
type recordingArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newRecordingArchive() *recordingArchive {
	return &recordingArchive{objects: map[string][]byte{}}
}

func (a *recordingArchive) PutOriginal(_ context.Context, id, format string, data []byte) (string, error) {
	if a.putErr != nil {
		return "", a.putErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	key := storage.ArchiveKey(id, format)
	a.objects[key] = data
	return key, nil
}

func (a *recordingArchive) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

// failingStore 写入总是失败
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) AddResume(context.Context, types.ResumeRecord) error {
	return errors.New("disk full")
}

type fixture struct {
	proc    *MatchProcessor
	store   *storage.MemoryStore
	archive *recordingArchive
	events  *recordingPublisher
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, settings ...SettingOpt) *fixture {
	t.Helper()
	f := &fixture{
		store:   storage.NewMemoryStore(),
		archive: newRecordingArchive(),
		events:  &recordingPublisher{},
		reg:     prometheus.NewRegistry(),
	}
	comps := NewComponents(
		WithRecordStore(f.store),
		WithArchive(f.archive),
		WithEvents(f.events),
		WithTextExtractor(fakeText{}),
		WithFieldExtractor(matcher.MustDefaultExtractor()),
		WithRanker(matcher.NewRanker(matcher.NewTFIDFStrategy(0))),
		WithMetrics(metrics.New(f.reg)),
	)
	proc, err := NewMatchProcessor(comps, NewSettings(settings...))
	require.NoError(t, err)
	f.proc = proc
	return f
}

const (
	pythonResume = `Alice Zhang
alice@example.com
Senior Python developer with 6 years of experience.
Skills: Python, Django, PostgreSQL, Docker.
Master of Science in Computer Science.`

	javaResume = `Bob Li
bob@example.com
Java engineer with 3 years experience building Spring services.
Skills: Java, Spring, Kubernetes.`
)

func pythonJob() JobDescriptionInput {
	return JobDescriptionInput{
		Title:        "Backend Python Engineer",
		Description:  "We need a Python developer to build Django services.",
		Requirements: "Experience with PostgreSQL and Docker",
		Skills:       "Python, Django , ,PostgreSQL",
	}
}

func TestNewMatchProcessor_RequiresComponents(t *testing.T) {
	_, err := NewMatchProcessor(nil, nil)
	assert.Error(t, err)

	_, err = NewMatchProcessor(NewComponents(WithRecordStore(storage.NewMemoryStore())), nil)
	assert.Error(t, err)
}

func TestNewMatchProcessor_Defaults(t *testing.T) {
	comps := NewComponents(
		WithRecordStore(storage.NewMemoryStore()),
		WithTextExtractor(fakeText{}),
		WithFieldExtractor(matcher.MustDefaultExtractor()),
		WithRanker(matcher.NewRanker(matcher.NewTFIDFStrategy(0))),
	)
	proc, err := NewMatchProcessor(comps, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, proc.settings.DefaultTopK)
	assert.Equal(t, DefaultMatchAllTopK, proc.settings.DefaultMatchAllTopK)
	assert.IsType(t, storage.NoopArchive{}, proc.comps.Archive)
	assert.IsType(t, storage.NoopPublisher{}, proc.comps.Events)

	stats, err := proc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, matcher.StrategyTFIDF, stats.ModelType)
	assert.Equal(t, matcher.StrategyTFIDF, stats.RequestedModelType)
}

func TestUploadResume_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, types.UnknownName, rec.CandidateName)
	assert.Equal(t, types.EducationHigher, rec.Education)
	assert.Equal(t, "alice@example.com", rec.Email)
	assert.Equal(t, 6, rec.ExperienceYears)
	assert.Contains(t, rec.Skills, "Python")
	assert.Equal(t, "txt", rec.FileFormat)
	assert.Equal(t, int64(len(pythonResume)), rec.FileSize)
	assert.Equal(t, storage.ArchiveKey(rec.ID, "txt"), rec.ArchiveKey)
	assert.Equal(t, matcher.Normalize(pythonResume), rec.CleanedText)

	stored, err := f.store.GetResume(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.Contains(t, f.archive.objects, rec.ArchiveKey)
	assert.Equal(t, []string{constants.RoutingKeyResumeUploaded}, f.events.routingKeys())
}

func TestUploadResume_Errors(t *testing.T) {
	t.Run("不支持的格式", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.proc.UploadResume(context.Background(), "photo.png", []byte("x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
		assert.Contains(t, Detail(err), "txt")
	})

	t.Run("文件过大", func(t *testing.T) {
		f := newFixture(t, WithMaxUploadBytes(4))
		_, err := f.proc.UploadResume(context.Background(), "a.txt", []byte("12345"))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("提取失败", func(t *testing.T) {
		f := newFixture(t)
		f.proc.comps.Text = fakeText{err: parser.ErrExtractionFailure}
		_, err := f.proc.UploadResume(context.Background(), "a.txt", []byte("x"))
		assert.ErrorIs(t, err, parser.ErrExtractionFailure)
	})

	t.Run("存储失败时清理归档", func(t *testing.T) {
		f := newFixture(t)
		f.proc.comps.Store = failingStore{MemoryStore: f.store}
		_, err := f.proc.UploadResume(context.Background(), "a.txt", []byte(pythonResume))
		require.Error(t, err)
		assert.Empty(t, f.archive.objects)
		assert.Empty(t, f.events.routingKeys())
	})
}

func TestUploadResume_ArchiveAndEventFailuresAreNotFatal(t *testing.T) {
	f := newFixture(t)
	f.archive.putErr = errors.New("minio down")
	f.events.err = errors.New("broker down")

	rec, err := f.proc.UploadResume(context.Background(), "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	assert.Empty(t, rec.ArchiveKey)

	list, err := f.proc.ListResumes(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUploadJobDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "Django", "PostgreSQL"}, rec.Skills)
	assert.Equal(t, []string{constants.RoutingKeyJobUploaded}, f.events.routingKeys())

	_, err = f.proc.UploadJobDescription(ctx, JobDescriptionInput{Title: "  ", Description: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.proc.UploadJobDescription(ctx, JobDescriptionInput{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseSkills(t *testing.T) {
	assert.Equal(t, []string{}, ParseSkills(""))
	assert.Equal(t, []string{}, ParseSkills(" , ,"))
	assert.Equal(t, []string{"Go", "gRPC"}, ParseSkills(" Go,gRPC ,"))
}

func TestMatchJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	py, err := f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	java, err := f.proc.UploadResume(ctx, "bob.txt", []byte(javaResume))
	require.NoError(t, err)
	job, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)

	out, err := f.proc.MatchJob(ctx, job.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, job.ID, out.JobDescription.ID)
	assert.Equal(t, 2, out.TotalCandidates)
	require.Len(t, out.Results, 2)
	assert.Equal(t, py.ID, out.Results[0].ResumeID)
	assert.Equal(t, "alice.txt", out.Results[0].FileName)
	assert.Equal(t, 1, out.Results[0].Rank)
	assert.Equal(t, java.ID, out.Results[1].ResumeID)
	assert.GreaterOrEqual(t, out.Results[0].SimilarityScore, out.Results[1].SimilarityScore)
	assert.Contains(t, out.Results[0].MatchedSkills, "Python")

	out, err = f.proc.MatchJob(ctx, job.ID, 1)
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)

	evs := f.events.routingKeys()
	assert.Equal(t, constants.RoutingKeyMatchCompleted, evs[len(evs)-1])
}

func TestMatchJob_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.MatchJob(ctx, "missing", 0)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	job, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)

	_, err = f.proc.MatchJob(ctx, job.ID, 0)
	assert.ErrorIs(t, err, matcher.ErrEmptyCorpus)
	assert.Equal(t, DetailNoResumes, Detail(err))

	_, err = f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	_, err = f.proc.MatchJob(ctx, job.ID, -1)
	assert.ErrorIs(t, err, matcher.ErrInvalidTopK)
}

func TestMatchAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.MatchAll(ctx, 0)
	assert.ErrorIs(t, err, matcher.ErrEmptyCorpus)
	assert.Equal(t, DetailNoJobs, Detail(err))

	pyJob, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)
	javaJob, err := f.proc.UploadJobDescription(ctx, JobDescriptionInput{
		Title:       "Java Engineer",
		Description: "Java developer for Spring and Kubernetes platform",
		Skills:      "Java,Spring",
	})
	require.NoError(t, err)

	_, err = f.proc.MatchAll(ctx, 0)
	assert.Equal(t, DetailNoResumes, Detail(err))

	py, err := f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	java, err := f.proc.UploadResume(ctx, "bob.txt", []byte(javaResume))
	require.NoError(t, err)

	all, err := f.proc.MatchAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, pyJob.ID, all[0].JobDescription.ID)
	require.Len(t, all[0].Results, 1)
	assert.Equal(t, py.ID, all[0].Results[0].ResumeID)

	assert.Equal(t, javaJob.ID, all[1].JobDescription.ID)
	require.Len(t, all[1].Results, 1)
	assert.Equal(t, java.ID, all[1].Results[0].ResumeID)
}

func TestDeleteResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	require.NoError(t, f.proc.DeleteResume(ctx, rec.ID))

	assert.Empty(t, f.archive.objects)
	_, err = f.proc.GetResume(ctx, rec.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = f.proc.DeleteResume(ctx, rec.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, []string{constants.RoutingKeyResumeUploaded, constants.RoutingKeyResumeDeleted}, f.events.routingKeys())
}

func TestDeleteJobDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)

	got, err := f.proc.GetJobDescription(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Title, got.Title)

	require.NoError(t, f.proc.DeleteJobDescription(ctx, job.ID))
	assert.ErrorIs(t, f.proc.DeleteJobDescription(ctx, job.ID), storage.ErrNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t, WithStrategyNames(matcher.StrategyDense, matcher.StrategyTFIDF))
	ctx := context.Background()

	_, err := f.proc.UploadResume(ctx, "alice.txt", []byte(pythonResume))
	require.NoError(t, err)
	_, err = f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)

	stats, err := f.proc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Stats{
		TotalResumes:         1,
		TotalJobDescriptions: 1,
		ModelType:            matcher.StrategyTFIDF,
		RequestedModelType:   matcher.StrategyDense,
	}, stats)
}

func TestMatchProcessor_ConcurrentUploadsAndMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.proc.UploadJobDescription(ctx, pythonJob())
	require.NoError(t, err)
	_, err = f.proc.UploadResume(ctx, "seed.txt", []byte(pythonResume))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := f.proc.UploadResume(ctx, fmt.Sprintf("r%d.txt", i), []byte(javaResume))
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			out, err := f.proc.MatchJob(ctx, job.ID, 0)
			if assert.NoError(t, err) {
				assert.NotEmpty(t, out.Results)
			}
		}()
	}
	wg.Wait()

	list, err := f.proc.ListResumes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 9)
}
