package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	l := Component("ranker")
	l.Info().Str("job_id", "j1").Msg("匹配完成")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "ranker", entry["component"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Equal(t, "匹配完成", entry["message"])
}

func TestInit_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{Level: "info"}) })

	Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInit_InvalidLevelDefaultsToInfo(t *testing.T) {
	Init(Config{Level: "verbose"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))
	assert.NotNil(t, Ctx(WithContext(context.Background())))
}
