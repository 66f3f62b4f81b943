package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager cancels a context on SIGINT or SIGTERM and remembers the
// signal that did it.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	sig    chan os.Signal
}

// NewSignalManager creates a manager derived from parent and immediately
// starts listening for signals.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := context.WithCancel(parent)
	sm := &SignalManager{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
		sig:    make(chan os.Signal, 1),
	}
	// We capture SIGINT (Ctrl+C) and SIGTERM
	signal.Notify(sm.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sm.sigCh:
			sm.sig <- s
			cancel()
		case <-ctx.Done():
		}
	}()
	return sm
}

// Context returns the signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Signal returns the signal that cancelled the context, or nil.
func (sm *SignalManager) Signal() os.Signal {
	select {
	case s := <-sm.sig:
		sm.sig <- s
		return s
	default:
		return nil
	}
}

// Stop permanently stops the signal listener and cancels the context.
func (sm *SignalManager) Stop() {
	signal.Stop(sm.sigCh)
	sm.cancel()
}
