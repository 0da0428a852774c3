package client

import (
	"fmt"
	"io"
	"time"
)

// Runner is the slice of the protocol engine the drivers need: one command
// round-trip whose response fragments stream to the session's sink.
type Runner interface {
	Exec(command string) error
}

// BatchInput carries everything the batch driver needs besides the session
// itself.
type BatchInput struct {
	Commands []string
	Delay    time.Duration // pause between commands
	Prompt   string        // echo prefix; unused when NoPrompt or Quiet
	NoPrompt bool
	Quiet    bool
	Stdout   io.Writer
}

// Batch executes an ordered command list, one round-trip each. Responses
// stream to the session's sink as they arrive; the driver only appends the
// terminating newline per response and the optional command echo. The first
// fatal error aborts the remaining queue.
func Batch(r Runner, in *BatchInput) error {
	for i, cmd := range in.Commands {
		if !in.NoPrompt && !in.Quiet {
			fmt.Fprintf(in.Stdout, "%s%s\n", in.Prompt, cmd)
		}

		if err := r.Exec(cmd); err != nil {
			return err
		}
		fmt.Fprintln(in.Stdout)

		if in.Delay > 0 && i < len(in.Commands)-1 {
			time.Sleep(in.Delay)
		}
	}
	return nil
}
