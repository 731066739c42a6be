package loop

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/logging"
	"github.com/tOgg1/afk/internal/looptui"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/watcher"
)

const (
	defaultEventBuffer  = 1024
	defaultPollInterval = 200 * time.Millisecond
	defaultQuitDelay    = 100 * time.Millisecond
)

// UIFunc runs a display on the calling goroutine until it exits.
type UIFunc func(cfg looptui.Config) error

// Interactive runs a controller behind the dashboard. The controller and the
// watcher each get a goroutine and talk to the UI only through events.
type Interactive struct {
	Controller *Controller
	Watcher    *watcher.Watcher

	PollInterval time.Duration
	BufferSize   int

	// UI defaults to looptui.Run.
	UI UIFunc

	// Out receives notices printed after the UI has released the terminal.
	Out io.Writer
}

// NewInteractive wires a harness for c using the controller's config. It
// gives the controller a quit delay, if it has none, so the summary stays up.
func NewInteractive(c *Controller, w *watcher.Watcher, out io.Writer) *Interactive {
	if c.QuitDelay == 0 {
		c.QuitDelay = defaultQuitDelay
	}
	return &Interactive{
		Controller:   c,
		Watcher:      w,
		PollInterval: c.Config.Watcher.PollInterval,
		BufferSize:   defaultEventBuffer,
		UI:           looptui.Run,
		Out:          out,
	}
}

// RedirectLogging points the global logger at the session log for as long as
// a display owns the terminal. Loggers must be derived after the call.
func RedirectLogging(logDir string) (func(), error) {
	log, err := openSessionLog(SessionLogPath(logDir))
	if err != nil {
		return func() {}, err
	}
	restore := logging.Redirect(log)
	return func() {
		restore()
		log.Close()
	}, nil
}

// Run blocks until the UI exits and the controller has finished. If the UI
// panics, the loop is interrupted and torn down before the panic continues.
func (h *Interactive) Run(ctx context.Context) (result models.RunResult, uiErr error) {
	c := h.Controller
	ch := make(chan events.Event, h.bufferSize())
	done := make(chan struct{})
	sink := events.NewChannelSink(ch, done)
	c.SetSink(sink)
	// The watch goroutine owns the watcher's buffer.
	c.Changes = nil

	var wg sync.WaitGroup
	stopWatch := make(chan struct{})
	if h.Watcher != nil {
		if err := h.Watcher.Start(); err != nil {
			c.Logger.Warn().Err(err).Msg("file watcher unavailable")
		} else {
			defer h.Watcher.Stop()
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.watch(stopWatch, sink)
			}()
		}
	}

	resultCh := make(chan models.RunResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.Logger.Error().Interface("panic", r).Msg("loop panicked")
				sink.Send(events.Error{Message: fmt.Sprintf("Loop crashed: %v", r)})
				sink.Send(events.Quit{})
				resultCh <- models.RunResult{StopReason: models.StopAgentError}
			}
		}()
		resultCh <- c.Run(ctx)
	}()

	uiReturned := false
	defer func() {
		if !uiReturned {
			c.Interrupt()
		}
		close(done)

		select {
		case result = <-resultCh:
		default:
			if h.Out != nil {
				fmt.Fprintln(h.Out, "Waiting for the current iteration to finish...")
			}
			result = <-resultCh
		}

		close(stopWatch)
		wg.Wait()
	}()

	ui := h.UI
	if ui == nil {
		ui = looptui.Run
	}
	cfg := c.Config.Feedback
	uiErr = ui(looptui.Config{
		Events:            ch,
		Interrupt:         c.Interrupt,
		MaxOutputLines:    cfg.MaxOutputLines,
		ShowMascot:        cfg.ShowMascot && c.Options.ShowMascot,
		ActiveThreshold:   cfg.ActiveThreshold,
		ThinkingThreshold: cfg.ThinkingThreshold,
	})
	uiReturned = true
	if uiErr != nil {
		c.Interrupt()
	}
	return result, uiErr
}

// watch forwards filesystem changes the agent has not already reported.
func (h *Interactive) watch(stop <-chan struct{}, sink events.Sink) {
	c := h.Controller
	ticker := time.NewTicker(h.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, change := range h.Watcher.GetChanges() {
				path := relativePath(c.WorkDir, change.Path)
				kind := change.ChangeType.String()
				if c.Metrics.RecordWatchedChange(path, kind) {
					sink.Send(events.FileChange{Path: path, ChangeType: kind})
				}
			}
		}
	}
}

func (h *Interactive) pollInterval() time.Duration {
	if h.PollInterval <= 0 {
		return defaultPollInterval
	}
	return h.PollInterval
}

func (h *Interactive) bufferSize() int {
	if h.BufferSize <= 0 {
		return defaultEventBuffer
	}
	return h.BufferSize
}
