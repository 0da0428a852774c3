package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// assembleCommands builds the batch queue: positional arguments first, then
// piped stdin lines (when stdin is not a terminal), then the contents of
// each -f script file, in that order.
func assembleCommands(positional, files []string, quiet bool, log *zap.SugaredLogger) []string {
	commands := append([]string(nil), positional...)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		commands = append(commands, readStdinLines(os.Stdin)...)
	}

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%sfailed to read any commands from %q\n", errPalette.WarnPrefix(), file)
			log.Debugw("script file open", "file", file, "error", err)
			continue
		}

		lines := readScriptLines(f)
		_ = f.Close()

		if len(lines) == 0 {
			fmt.Fprintf(os.Stderr, "%sfailed to read any commands from %q\n", errPalette.WarnPrefix(), file)
			continue
		}

		if !quiet {
			fmt.Fprintf(os.Stderr, "%ssuccessfully read commands from %q\n", errPalette.MsgPrefix(), file)
		}
		commands = append(commands, lines...)
	}

	return commands
}

// readStdinLines reads one command per piped line, trimming surrounding
// whitespace and skipping blank lines. No comment stripping here: '#' and
// ';' are legal inside a command (say messages, chained console commands)
// and must reach the server intact.
func readStdinLines(r io.Reader) []string {
	var lines []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// readScriptLines reads one command per script-file line, dropping '#'/';'
// comments, surrounding whitespace, and blank lines.
func readScriptLines(r io.Reader) []string {
	var lines []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexAny(line, "#;"); i != -1 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
