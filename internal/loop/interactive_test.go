package loop

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/looptui"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/watcher"
)

func TestInteractiveDeliversEventsUntilQuit(t *testing.T) {
	f := newControllerFixture(t,
		models.Task{ID: "a", Title: "A", Priority: 1},
		models.Task{ID: "b", Title: "B", Priority: 2},
	)
	c := f.controller(models.DefaultRunOptions(), completeTask)

	var seen []events.Event
	h := NewInteractive(c, nil, nil)
	h.UI = func(cfg looptui.Config) error {
		for ev := range cfg.Events {
			seen = append(seen, ev)
			if _, ok := ev.(events.Quit); ok {
				return nil
			}
		}
		return nil
	}

	result, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StopComplete, result.StopReason)
	assert.Equal(t, 2, result.IterationsCompleted)

	var starts int
	for _, ev := range seen {
		if _, ok := ev.(events.IterationStart); ok {
			starts++
		}
	}
	assert.Equal(t, 2, starts)
	require.NotEmpty(t, seen)
	assert.Equal(t, events.Quit{}, seen[len(seen)-1])
}

func TestInteractiveUIExitInterruptsLoop(t *testing.T) {
	f := newControllerFixture(t,
		models.Task{ID: "a", Title: "A", Priority: 1},
		models.Task{ID: "b", Title: "B", Priority: 2},
		models.Task{ID: "c", Title: "C", Priority: 3},
	)
	started := make(chan struct{})
	release := make(chan struct{})
	c := f.controller(models.DefaultRunOptions(), func(f *controllerFixture, it IterationContext) models.IterationResult {
		if it.Index == 1 {
			close(started)
			<-release
		}
		return completeTask(f, it)
	})

	h := NewInteractive(c, nil, nil)
	h.UI = func(cfg looptui.Config) error {
		<-started
		cfg.Interrupt()
		close(release)
		return nil
	}

	result, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StopUserInterrupt, result.StopReason)
	assert.Equal(t, 1, result.IterationsCompleted)
	assert.NotEmpty(t, result.ArchivedTo)
}

func TestInteractiveForwardsWatcherChanges(t *testing.T) {
	f := newControllerFixture(t, models.Task{ID: "a", Title: "A", Priority: 1})
	target := filepath.Join(f.dir, "notes.txt")

	c := f.controller(models.DefaultRunOptions(), func(f *controllerFixture, it IterationContext) models.IterationResult {
		if err := os.WriteFile(target, []byte("hi"), 0o644); err != nil {
			return models.IterationFailed(err.Error(), "")
		}
		// Leave the watcher time to report before the session ends.
		time.Sleep(500 * time.Millisecond)
		return completeTask(f, it)
	})

	w := watcher.New(f.dir)
	h := NewInteractive(c, w, nil)
	h.PollInterval = 20 * time.Millisecond

	var changes []events.FileChange
	h.UI = func(cfg looptui.Config) error {
		for ev := range cfg.Events {
			switch e := ev.(type) {
			case events.FileChange:
				changes = append(changes, e)
			case events.Quit:
				return nil
			}
		}
		return nil
	}

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, changes, events.FileChange{Path: "notes.txt", ChangeType: "created"})
	assert.False(t, w.IsRunning())
}

func TestInteractiveTearsDownWhenUIPanics(t *testing.T) {
	f := newControllerFixture(t,
		models.Task{ID: "a", Title: "A", Priority: 1},
		models.Task{ID: "b", Title: "B", Priority: 2},
	)
	c := f.controller(models.DefaultRunOptions(), completeTask)
	w := watcher.New(f.dir)

	h := NewInteractive(c, w, nil)
	h.PollInterval = 10 * time.Millisecond
	h.UI = func(cfg looptui.Config) error {
		panic("display crashed")
	}

	assert.PanicsWithValue(t, "display crashed", func() {
		_, _ = h.Run(context.Background())
	})
	assert.True(t, c.Interrupted())
	assert.False(t, w.IsRunning())
}

func TestQuitDelayOnlyAppliesBehindTheDashboard(t *testing.T) {
	cfg, dir := testConfig(t)
	c := NewController(cfg, models.DefaultRunOptions(), nil, nil, dir)
	assert.Zero(t, c.QuitDelay)

	NewInteractive(c, nil, nil)
	assert.Equal(t, defaultQuitDelay, c.QuitDelay)

	c.QuitDelay = time.Millisecond
	NewInteractive(c, nil, nil)
	assert.Equal(t, time.Millisecond, c.QuitDelay)
}
