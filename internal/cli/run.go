package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/presentation/tui"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/runner"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	SessionID string
	Config    domain.Configuration
	// JSON switches to JSON-Lines input and output.
	JSON bool
	// Fresh discards a stored session with the same id before starting.
	Fresh bool
	Quiet bool
	// MaxRejections stops after that many rejected submissions in a row.
	MaxRejections int
}

// RunSession drives one wizard session on in and out until it is finalized.
// Interruptions leave the session stored and are not reported as errors.
func RunSession(ctx context.Context, stack *Stack, opts RunOptions, in *os.File, out io.Writer) error {
	quiet := opts.Quiet || opts.JSON
	if !quiet {
		tui.PrintBanner(out, ingest.Version)
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := stack.Wizard.Abandon(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}

	if _, err := stack.Wizard.State(ctx, opts.SessionID); err == nil {
		stack.Logger.Info("session resumed", "session_id", opts.SessionID)
		if !quiet {
			printSystemMessage(out, "Resuming session '%s'.", opts.SessionID)
		}
	} else if !quiet {
		printSystemMessage(out, "Session '%s' active.", opts.SessionID)
	}

	r := runner.NewRunner(
		runner.WithPrompter(newPrompter(in, out, opts.JSON)),
		runner.WithLogger(stack.Logger),
		runner.WithMaxRejections(opts.MaxRejections),
	)
	_, err := r.Run(ctx, stack.Wizard, opts.SessionID, opts.Config)
	if isInterrupted(err) {
		reason := "input closed"
		if sig := InterruptSignal(ctx); sig != nil {
			reason = "signal " + sig.String()
		} else if errors.Is(err, runner.ErrAborted) || errors.Is(err, context.Canceled) {
			reason = "aborted"
		}
		stack.Logger.Info("session interrupted", "session_id", opts.SessionID, "reason", reason)
		if !quiet {
			fmt.Fprintln(out)
			printSystemMessage(out, "Interrupted (%s). Resume with --session %s.", reason, opts.SessionID)
		}
		return nil
	}
	return err
}

func newPrompter(in *os.File, out io.Writer, jsonMode bool) runner.Prompter {
	if jsonMode {
		return runner.NewJSONPrompter(in, out)
	}
	var opts []runner.TextOption
	if runner.IsTerminal(in) {
		if render, err := tui.NewRenderer(80); err == nil {
			opts = append(opts, runner.WithRenderer(render))
		}
	}
	return runner.NewPrompter(in, out, opts...)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, runner.ErrAborted) ||
		errors.Is(err, io.EOF)
}
