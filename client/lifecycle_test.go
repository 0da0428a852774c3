package client

import (
	"bytes"
	"testing"

	"github.com/mmmorris1975/rcon-session-client/rcon"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestShutdownIdempotent(t *testing.T) {
	out := new(bytes.Buffer)
	s := rcon.New("127.0.0.1", "27015")
	l := NewLifecycle(s, NewPalette(true, false), out, zap.NewNop().Sugar())

	l.Shutdown()
	l.Shutdown()
	l.Shutdown()

	// session closed once, palette reset emitted once
	assert.Equal(t, rcon.Closed, s.State())
	assert.Equal(t, "\x1b[0m", out.String())
	assert.False(t, l.Interrupted())
}

func TestShutdownBeforeConnectIsSafe(t *testing.T) {
	s := rcon.New("127.0.0.1", "27015")
	l := NewLifecycle(s, NewPalette(false, false), new(bytes.Buffer), zap.NewNop().Sugar())

	l.Install()
	l.Shutdown()
	assert.Equal(t, rcon.Closed, s.State())
}
