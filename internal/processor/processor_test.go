package processor

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagforgeapp/tagforge-server/internal/config"
	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/logger"
	"github.com/tagforgeapp/tagforge-server/internal/rating"
	"github.com/tagforgeapp/tagforge-server/internal/reader"
	"github.com/tagforgeapp/tagforge-server/internal/writer"
)

func testProcessor(batch config.BatchConfig) *Processor {
	log := logger.New(logger.Config{Writer: io.Discard})
	cfg := config.WriteConfig{ID3Version: 3, UseTDRC: true}
	conv := rating.MustConverter(nil)
	r := reader.New(cfg, conv, log)
	w := writer.New(cfg, conv, log)
	return New(r, w, log, batch)
}

func TestRun_MissingFilesFailWithoutStoppingBatch(t *testing.T) {
	p := testProcessor(config.BatchConfig{MaxConcurrent: 2, ContinueOnError: true})

	paths := []string{
		"/nonexistent/a.mp3",
		"/nonexistent/b.flac",
		"/nonexistent/c.m4a",
	}
	report, err := p.Run(context.Background(), paths, nil)
	require.NoError(t, err, "continue-on-error keeps the batch alive")

	require.Len(t, report.Files, 3)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 0, report.Written)
	for i, f := range report.Files {
		assert.Equal(t, paths[i], f.Path, "reports keep input order")
		assert.Equal(t, StatusFailed, f.Status)
		assert.True(t, errors.Is(f.Err, errors.ErrNotFound))
		assert.True(t, strings.HasPrefix(f.ID, "file-"))
	}
	assert.True(t, strings.HasPrefix(report.ID, "batch-"))
}

func TestRun_AbortsWhenContinueOnErrorOff(t *testing.T) {
	p := testProcessor(config.BatchConfig{MaxConcurrent: 1, ContinueOnError: false})

	paths := []string{"/nonexistent/a.mp3", "/nonexistent/b.mp3", "/nonexistent/c.mp3"}
	report, err := p.Run(context.Background(), paths, nil)

	require.Error(t, err)
	assert.GreaterOrEqual(t, report.Failed, 1)
	assert.Equal(t, len(paths), report.Failed+report.Skipped)
}

func TestRun_CanceledContextSkipsEverything(t *testing.T) {
	p := testProcessor(config.BatchConfig{MaxConcurrent: 2, ContinueOnError: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, []string{"/nonexistent/a.mp3", "/nonexistent/b.mp3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Failed)
}

func TestRun_EmptyBatch(t *testing.T) {
	p := testProcessor(config.BatchConfig{MaxConcurrent: 4, ContinueOnError: true})

	report, err := p.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Equal(t, 0, report.Written+report.Unchanged+report.Failed+report.Skipped)
}
