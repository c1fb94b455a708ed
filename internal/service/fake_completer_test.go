package service

import (
	"context"
	"slices"
	"sync"

	"startupsaathi-backend/internal/model"
)

// fakeCompleter records every call. When release is set, Complete signals
// started and blocks until release is closed.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   [][]model.Turn
	reply   string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, turns []model.Turn) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(turns))
	started, release := f.started, f.release
	f.mu.Unlock()

	if release != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompleter) lastCall() []model.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}
