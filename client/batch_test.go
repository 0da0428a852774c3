package client

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mmmorris1975/rcon-session-client/rcon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner plays the protocol engine: each Exec streams the scripted
// response into the shared sink (the way a session's Out points at stdout)
// and records the command.
type stubRunner struct {
	sink      *bytes.Buffer
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (s *stubRunner) Exec(command string) error {
	s.calls = append(s.calls, command)
	if err := s.errs[command]; err != nil {
		return err
	}
	s.sink.WriteString(s.responses[command])
	return nil
}

func TestBatchHappyPath(t *testing.T) {
	out := new(bytes.Buffer)
	r := &stubRunner{sink: out, responses: map[string]string{"help": "helptext", "status": "statustext"}}

	err := Batch(r, &BatchInput{
		Commands: []string{"help", "status"},
		Prompt:   "RCON@srv> ",
		Stdout:   out,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"help", "status"}, r.calls)
	assert.Equal(t, "RCON@srv> help\nhelptext\nRCON@srv> status\nstatustext\n", out.String())
}

func TestBatchNoPromptSuppressesEcho(t *testing.T) {
	out := new(bytes.Buffer)
	r := &stubRunner{sink: out, responses: map[string]string{"help": "helptext"}}

	err := Batch(r, &BatchInput{Commands: []string{"help"}, NoPrompt: true, Stdout: out})
	require.NoError(t, err)
	assert.Equal(t, "helptext\n", out.String())
}

func TestBatchQuietSuppressesEcho(t *testing.T) {
	out := new(bytes.Buffer)
	r := &stubRunner{sink: out, responses: map[string]string{"help": "helptext"}}

	err := Batch(r, &BatchInput{Commands: []string{"help"}, Quiet: true, Stdout: out})
	require.NoError(t, err)
	assert.Equal(t, "helptext\n", out.String())
}

func TestBatchAbortsOnFatalError(t *testing.T) {
	out := new(bytes.Buffer)
	lost := &rcon.Error{Kind: rcon.KindConnectionLost, Msg: "gone"}
	r := &stubRunner{
		sink:      out,
		responses: map[string]string{"a": "ok"},
		errs:      map[string]error{"b": lost},
	}

	err := Batch(r, &BatchInput{Commands: []string{"a", "b", "c"}, NoPrompt: true, Stdout: out})
	require.Error(t, err)
	assert.True(t, rcon.IsKind(err, rcon.KindConnectionLost))
	// "c" never ran
	assert.Equal(t, []string{"a", "b"}, r.calls)
}

func TestBatchTimeoutIsFatal(t *testing.T) {
	out := new(bytes.Buffer)
	r := &stubRunner{
		sink: out,
		errs: map[string]error{"slow": &rcon.Error{Kind: rcon.KindResponseTimeout, Msg: "timeout"}},
	}

	err := Batch(r, &BatchInput{Commands: []string{"slow", "next"}, NoPrompt: true, Stdout: out})
	assert.True(t, rcon.IsKind(err, rcon.KindResponseTimeout))
	assert.Equal(t, []string{"slow"}, r.calls)
}

func TestBatchEmptyQueue(t *testing.T) {
	r := &stubRunner{sink: new(bytes.Buffer)}
	require.NoError(t, Batch(r, &BatchInput{Stdout: new(bytes.Buffer)}))
	assert.Empty(t, r.calls)
}

func TestInteractiveExecutesUntilExit(t *testing.T) {
	out := new(bytes.Buffer)
	r := &stubRunner{sink: out, responses: map[string]string{"status": "up"}}

	err := Interactive(r, &InteractiveInput{
		In:      strings.NewReader("status\n\nEXIT\n"),
		Stdout:  out,
		Stderr:  out,
		Prompt:  "> ",
		Palette: NewPalette(false, false),
	})
	require.NoError(t, err)

	// empty line re-prompts without executing; EXIT never reaches the server
	assert.Equal(t, []string{"status"}, r.calls)
	assert.Contains(t, out.String(), "up\n")
}

func TestInteractiveQuitCaseInsensitive(t *testing.T) {
	r := &stubRunner{sink: new(bytes.Buffer)}
	err := Interactive(r, &InteractiveInput{
		In:       strings.NewReader("Quit\nstatus\n"),
		Stdout:   new(bytes.Buffer),
		Stderr:   new(bytes.Buffer),
		NoPrompt: true,
		Palette:  NewPalette(false, false),
	})
	require.NoError(t, err)
	assert.Empty(t, r.calls)
}

func TestInteractiveEOFExitsCleanly(t *testing.T) {
	r := &stubRunner{sink: new(bytes.Buffer)}
	err := Interactive(r, &InteractiveInput{
		In:       strings.NewReader("status\n"),
		Stdout:   new(bytes.Buffer),
		Stderr:   new(bytes.Buffer),
		NoPrompt: true,
		Palette:  NewPalette(false, false),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, r.calls)
}

func TestInteractiveContinuesAfterTimeout(t *testing.T) {
	stderr := new(bytes.Buffer)
	r := &stubRunner{
		sink:      new(bytes.Buffer),
		responses: map[string]string{"ok": "fine"},
		errs: map[string]error{
			"slow": &rcon.Error{Kind: rcon.KindResponseTimeout, Msg: "no response"},
			"bad":  &rcon.Error{Kind: rcon.KindServerRejected, Msg: "rejected"},
		},
	}

	err := Interactive(r, &InteractiveInput{
		In:       strings.NewReader("slow\nbad\nok\n"),
		Stdout:   new(bytes.Buffer),
		Stderr:   stderr,
		NoPrompt: true,
		Palette:  NewPalette(false, false),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"slow", "bad", "ok"}, r.calls)
	assert.Contains(t, stderr.String(), "ResponseTimeout")
	assert.Contains(t, stderr.String(), "ServerRejected")
}

func TestInteractiveFatalErrorUnwinds(t *testing.T) {
	r := &stubRunner{
		sink: new(bytes.Buffer),
		errs: map[string]error{"boom": &rcon.Error{Kind: rcon.KindConnectionLost, Msg: "gone"}},
	}

	err := Interactive(r, &InteractiveInput{
		In:       strings.NewReader("boom\nnever\n"),
		Stdout:   new(bytes.Buffer),
		Stderr:   new(bytes.Buffer),
		NoPrompt: true,
		Palette:  NewPalette(false, false),
	})
	assert.True(t, rcon.IsKind(err, rcon.KindConnectionLost))
	assert.Equal(t, []string{"boom"}, r.calls)
}

func TestInteractiveInterruptExitsCleanly(t *testing.T) {
	r := &stubRunner{
		sink: new(bytes.Buffer),
		errs: map[string]error{"status": rcon.ErrInterrupted},
	}

	err := Interactive(r, &InteractiveInput{
		In:       strings.NewReader("status\nnever\n"),
		Stdout:   new(bytes.Buffer),
		Stderr:   new(bytes.Buffer),
		NoPrompt: true,
		Palette:  NewPalette(false, false),
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"status"}, r.calls)
}
