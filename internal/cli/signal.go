package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// InterruptedError is the cancellation cause of a context stopped by a signal.
type InterruptedError struct {
	Signal os.Signal
}

func (e *InterruptedError) Error() string {
	return "interrupted by " + e.Signal.String()
}

// WithSignals returns a context cancelled when one of sigs arrives
// (SIGINT and SIGTERM when none are given). The signal becomes the
// context's cause, see InterruptSignal.
func WithSignals(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancelCause(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(&InterruptedError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// InterruptSignal returns the signal that cancelled ctx, or nil.
func InterruptSignal(ctx context.Context) os.Signal {
	var ierr *InterruptedError
	if errors.As(context.Cause(ctx), &ierr) {
		return ierr.Signal
	}
	return nil
}
