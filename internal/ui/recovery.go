package ui

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ProgramFactory builds a fresh model for every (re)start.
type ProgramFactory func() (tea.Model, []tea.ProgramOption)

// RecoveryHandler restarts the UI after bubbletea reports a panic.
type RecoveryHandler struct {
	logger       *zap.Logger
	createUI     ProgramFactory
	restartDelay time.Duration
	maxRestarts  int

	mu           sync.Mutex
	restartCount int
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(logger *zap.Logger, createUI ProgramFactory) *RecoveryHandler {
	return &RecoveryHandler{
		logger:       logger,
		createUI:     createUI,
		restartDelay: 2 * time.Second,
		maxRestarts:  5,
	}
}

// WithRestartPolicy overrides the delay between restarts and their limit.
func (rh *RecoveryHandler) WithRestartPolicy(delay time.Duration, maxRestarts int) *RecoveryHandler {
	rh.restartDelay = delay
	rh.maxRestarts = maxRestarts
	return rh
}

// Run blocks until the UI exits normally, ctx is cancelled, or it crashed
// more than maxRestarts times.
func (rh *RecoveryHandler) Run(ctx context.Context) error {
	for {
		err := rh.runOnce(ctx)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, tea.ErrProgramPanic):
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		}

		rh.mu.Lock()
		rh.restartCount++
		count := rh.restartCount
		rh.mu.Unlock()

		if count > rh.maxRestarts {
			return fmt.Errorf("UI crashed too many times (%d), giving up", rh.maxRestarts)
		}
		rh.logger.Error("UI crashed, will restart",
			zap.Error(err),
			zap.Int("restart_count", count),
			zap.Duration("delay", rh.restartDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(rh.restartDelay):
		}
	}
}

func (rh *RecoveryHandler) runOnce(ctx context.Context) (err error) {
	// createUI itself runs outside bubbletea's panic handler.
	defer func() {
		if r := recover(); r != nil {
			rh.logger.Error("UI panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", tea.ErrProgramPanic, r)
		}
	}()

	model, opts := rh.createUI()
	opts = append(opts, tea.WithContext(ctx))
	_, err = tea.NewProgram(model, opts...).Run()
	return err
}

// RestartCount returns the number of restarts so far.
func (rh *RecoveryHandler) RestartCount() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return rh.restartCount
}

// SafeModel keeps a panicking Update or View from taking the program down.
type SafeModel struct {
	model  tea.Model
	logger *zap.Logger
	failed string
}

// NewSafeModel wraps model.
func NewSafeModel(model tea.Model, logger *zap.Logger) *SafeModel {
	return &SafeModel{model: model, logger: logger}
}

// Init wraps the Init method with panic recovery
func (sm *SafeModel) Init() (cmd tea.Cmd) {
	defer sm.recoverFromPanic("Init", &cmd)
	return sm.model.Init()
}

// Update forwards msg; after a panic the previous model is kept and the
// panic is shown until the next successful update.
func (sm *SafeModel) Update(msg tea.Msg) (m tea.Model, cmd tea.Cmd) {
	m = sm
	defer sm.recoverFromPanic("Update", &cmd)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" && sm.failed != "" {
		return sm, tea.Quit
	}
	next, cmd := sm.model.Update(msg)
	sm.model = next
	sm.failed = ""
	return sm, cmd
}

// View wraps the View method with panic recovery
func (sm *SafeModel) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			sm.logger.Error("View panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			view = "UI error: view crashed. Press Ctrl+C to exit."
		}
	}()
	if sm.failed != "" {
		return fmt.Sprintf("UI error in %s. Press any key to continue, Ctrl+C to exit.\n\n%s", sm.failed, sm.model.View())
	}
	return sm.model.View()
}

// Model returns the wrapped model.
func (sm *SafeModel) Model() tea.Model {
	return sm.model
}

func (sm *SafeModel) recoverFromPanic(method string, cmd *tea.Cmd) {
	if r := recover(); r != nil {
		sm.logger.Error("UI method panic recovered",
			zap.String("method", method),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
		sm.failed = method
		*cmd = nil
	}
}
