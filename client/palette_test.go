package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateBukkit(t *testing.T) {
	pal := NewPalette(true, true)

	cases := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"red code", []byte{0xC2, 0xA7, 'c', 'X'}, []byte("\x1b[91mX\x1b[0m")},
		{"reset code", []byte{0xC2, 0xA7, 'r', 'X'}, []byte("\x1b[0mX\x1b[0m")},
		{"bold", []byte{0xC2, 0xA7, 'l', 'B'}, []byte("\x1b[1mB\x1b[0m")},
		{"two codes", append([]byte{0xC2, 0xA7, '4'}, append([]byte("hi"), 0xC2, 0xA7, 'f', 'x')...), []byte("\x1b[31mhi\x1b[97mx\x1b[0m")},
		{"unknown code passes through", []byte{0xC2, 0xA7, 'z', 'X'}, []byte{0xC2, 0xA7, 'z', 'X'}},
		{"no codes", []byte("plain"), []byte("plain")},
		{"trailing section sign", []byte{'a', 0xC2, 0xA7}, []byte{'a', 0xC2, 0xA7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pal.TranslateBukkit(tc.in))
		})
	}
}

func TestTranslateBukkitDisabled(t *testing.T) {
	in := []byte{0xC2, 0xA7, 'c', 'X'}

	// translation off: bytes pass through untouched
	assert.Equal(t, in, NewPalette(true, false).TranslateBukkit(in))
	// no-color implies no bukkit translation regardless of the toggle
	assert.Equal(t, in, NewPalette(false, true).TranslateBukkit(in))
}

func TestPaletteNoColor(t *testing.T) {
	pal := NewPalette(false, false)

	assert.Equal(t, "RCON@srv> ", pal.Prompt("srv"))
	assert.Equal(t, "", pal.Reset())
	assert.NotContains(t, pal.WarnPrefix(), "\x1b")
}

func TestPaletteColor(t *testing.T) {
	pal := NewPalette(true, false)

	assert.Equal(t, "\x1b[32mRCON@srv\x1b[0m> ", pal.Prompt("srv"))
	assert.Equal(t, "\x1b[0m", pal.Reset())
	assert.Contains(t, pal.ErrPrefix(), "\x1b[31m")
}
