package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/pkg/models"
)

func report(fonts ...string) *models.AnalysisReport {
	r := &models.AnalysisReport{
		Source: models.Source{Kind: models.SourceYouTube, URL: "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"},
		Fonts:  models.AnalysisResult{},
	}
	for _, f := range fonts {
		r.Fonts = append(r.Fonts, models.DetectedFont{FontName: f})
	}
	return r
}

func TestSession_Lifecycle(t *testing.T) {
	s := New()
	assert.Equal(t, Idle, s.Snapshot().State)
	assert.False(t, s.Busy())

	tk, _ := s.Begin()
	snap := s.Snapshot()
	assert.Equal(t, Running, snap.State)
	assert.True(t, snap.Loading)
	assert.True(t, s.Busy())

	require.True(t, s.Complete(tk, report("Impact")))
	snap = s.Snapshot()
	assert.Equal(t, Succeeded, snap.State)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Fonts, 1)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", snap.ImageURL)
}

func TestSession_FailureClearsOutput(t *testing.T) {
	s := New()
	tk, _ := s.Begin()
	s.Complete(tk, report("Impact"))

	tk, _ = s.Begin()
	snap := s.Snapshot()
	assert.Empty(t, snap.Fonts, "a new run clears previous results")
	assert.Empty(t, snap.ImageURL)

	require.True(t, s.Fail(tk, apperrors.NewFetchStatusError(404)))
	snap = s.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, "Failed to fetch image. Status: 404", snap.Error)
	assert.Nil(t, snap.Fonts)
	assert.Empty(t, snap.ImageURL)
	assert.Nil(t, snap.Report)
}

func TestSession_StaleResultsAreDiscarded(t *testing.T) {
	s := New()
	first, superseded := s.Begin()
	assert.False(t, superseded)
	second, superseded := s.Begin()
	assert.True(t, superseded)

	assert.False(t, s.Complete(first, report("Old")))
	assert.False(t, s.Fail(first, errors.New("late")))
	assert.Equal(t, Running, s.Snapshot().State)

	require.True(t, s.Complete(second, report("New")))
	assert.Equal(t, "New", s.Snapshot().Fonts[0].FontName)

	assert.False(t, s.Complete(second, report("Again")), "a ticket completes once")
}

func TestSession_BeginAfterFinishIsNotASupersede(t *testing.T) {
	s := New()
	tk, _ := s.Begin()
	s.Fail(tk, errors.New("x"))

	_, superseded := s.Begin()
	assert.False(t, superseded)
}

func TestSession_ResetMakesRunningStale(t *testing.T) {
	s := New()
	tk, _ := s.Begin()
	s.Reset()
	assert.False(t, s.Complete(tk, report("Impact")))
	assert.Equal(t, Idle, s.Snapshot().State)
}

func TestSession_PlainErrorMessage(t *testing.T) {
	s := New()
	tk, _ := s.Begin()
	s.Fail(tk, errors.New("internal detail"))
	assert.Equal(t, apperrors.UserMessage(errors.New("x")), s.Snapshot().Error)
}

func TestManager(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	got := make([]*Session, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = m.Get(42)
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.NotSame(t, got[0], m.Get(7))

	m.Forget(42)
	assert.NotSame(t, got[0], m.Get(42))
}

func TestManager_Prune(t *testing.T) {
	m := NewManager()

	done := m.Get(1)
	tk, _ := done.Begin()
	done.Complete(tk, report("Impact"))
	m.Get(2)
	running := m.Get(3)
	running.Begin()

	assert.Equal(t, 0, m.Prune(time.Hour), "recent sessions stay")

	assert.Equal(t, 2, m.Prune(0))
	assert.Same(t, running, m.Get(3), "running sessions are never pruned")
	assert.NotSame(t, done, m.Get(1))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
}
