package textcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(d *Decoder) []rune {
	var out []rune
	for {
		ch, ok := d.Next()
		if !ok {
			return out
		}
		out = append(out, ch)
	}
}

func TestDecodeASCII(t *testing.T) {
	d := NewDecoder("Hi!")
	assert.Equal(t, []rune{'H', 'i', '!'}, collect(d))
}

func TestDecodeMultibyte(t *testing.T) {
	d := NewDecoder("aé€あ\U0001F600")
	assert.Equal(t, []rune{'a', 'é', '€', 'あ', 0x1F600}, collect(d))
}

func TestDecodeStopsAtNul(t *testing.T) {
	d := NewDecoder("ab\x00cd")
	assert.Equal(t, []rune{'a', 'b'}, collect(d))
}

func TestDecodeInvalidLeadByte(t *testing.T) {
	// A stray continuation byte costs one replacement and one byte.
	d := NewDecoder("a\x80b")
	assert.Equal(t, []rune{'a', Replacement, 'b'}, collect(d))

	// 0xF8 cannot start a sequence either.
	d = NewDecoder("\xF8x")
	assert.Equal(t, []rune{Replacement, 'x'}, collect(d))
}

func TestDecodeTruncatedTail(t *testing.T) {
	// Lead byte claims three bytes but the buffer ends; the decode degrades
	// without reading past the end.
	d := NewDecoder("\xE3\x81")
	out := collect(d)
	assert.Len(t, out, 1)
}

func TestDecodeRestartable(t *testing.T) {
	d := NewDecoder("héllo")
	first := collect(d)
	d.Reset()
	second := collect(d)
	assert.Equal(t, first, second)
	assert.Equal(t, []rune{'h', 'é', 'l', 'l', 'o'}, first)
}

func TestDecodeEmpty(t *testing.T) {
	d := NewDecoder("")
	_, ok := d.Next()
	assert.False(t, ok)
}
