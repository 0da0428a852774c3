package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmmorris1975/rcon-session-client/rcon"
)

// InteractiveInput configures the read-eval-print loop.
type InteractiveInput struct {
	In       io.Reader // command source, stdin in production
	Stdout   io.Writer
	Stderr   io.Writer
	Prompt   string
	NoPrompt bool
	Palette  *Palette
}

// Interactive runs a line-oriented REPL over in.In until EOF, an exit
// command, or a fatal session error. "exit" and "quit" (case-insensitive)
// leave without contacting the server. ResponseTimeout and ServerRejected
// are reported and the loop keeps going; every other error unwinds.
func Interactive(r Runner, in *InteractiveInput) error {
	sc := bufio.NewScanner(in.In)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if !in.NoPrompt {
			fmt.Fprint(in.Stdout, in.Prompt)
		}

		if !sc.Scan() {
			// EOF ends the shell cleanly; a read error is returned
			if !in.NoPrompt {
				fmt.Fprintln(in.Stdout)
			}
			return sc.Err()
		}

		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		err := r.Exec(line)
		switch {
		case err == nil:
			fmt.Fprintln(in.Stdout)
		case errors.Is(err, rcon.ErrInterrupted):
			return nil
		case rcon.IsKind(err, rcon.KindResponseTimeout), rcon.IsKind(err, rcon.KindServerRejected):
			fmt.Fprintln(in.Stderr, in.Palette.WarnPrefix()+err.Error())
		default:
			return err
		}
	}
}
