package rcon

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := newError(KindAuthFailed, "srv:27015", nil, "authentication refused")
	assert.Equal(t, "AuthFailed: authentication refused (srv:27015)", err.Error())

	wrapped := newError(KindIo, "", io.ErrClosedPipe, "socket error")
	assert.Equal(t, "Io: socket error: io: read/write on closed pipe", wrapped.Error())
	assert.ErrorIs(t, wrapped, io.ErrClosedPipe)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", newError(KindResponseTimeout, "h:1", nil, "slow"))

	assert.True(t, IsKind(err, KindResponseTimeout))
	assert.False(t, IsKind(err, KindConnectionLost))
	assert.False(t, IsKind(errors.New("plain"), KindResponseTimeout))
}

func TestKindStrings(t *testing.T) {
	kinds := map[Kind]string{
		KindResolutionFailed:  "ResolutionFailed",
		KindConnectFailed:     "ConnectFailed",
		KindAuthFailed:        "AuthFailed",
		KindServerRejected:    "ServerRejected",
		KindConnectionLost:    "ConnectionLost",
		KindIo:                "Io",
		KindMalformedFrame:    "MalformedFrame",
		KindProtocolViolation: "ProtocolViolation",
		KindResponseTimeout:   "ResponseTimeout",
		KindConfigError:       "ConfigError",
		KindBadArgument:       "BadArgument",
		KindUnknown:           "Unknown",
	}
	for k, want := range kinds {
		assert.Equal(t, want, k.String())
	}
}
