// Package textcodec decodes committed text into Unicode codepoints.
//
// The decoder is deliberately forgiving: committed strings come from input
// method clients and a malformed byte must cost at most one replacement
// character, never the rest of the commit. Continuation bytes are masked, not
// validated; a bad lead byte yields U+FFFD and advances exactly one byte.
package textcodec

// Replacement is emitted for bytes that do not start a valid UTF-8 sequence.
const Replacement rune = 0xFFFD

// Decoder walks the codepoints of a text buffer. The zero value is empty;
// Reset restarts the same buffer from the beginning.
type Decoder struct {
	buf string
	pos int
}

// NewDecoder returns a decoder over text. Decoding stops at the end of the
// string or at an embedded NUL, whichever comes first.
func NewDecoder(text string) *Decoder {
	return &Decoder{buf: text}
}

// Reset rewinds the decoder to the start of its buffer.
func (d *Decoder) Reset() {
	d.pos = 0
}

// Next returns the next codepoint. ok is false once the buffer is exhausted.
func (d *Decoder) Next() (ch rune, ok bool) {
	if d.pos >= len(d.buf) || d.buf[d.pos] == 0 {
		return 0, false
	}

	size := seqSize(d.buf[d.pos])
	if size == 0 {
		d.pos++
		return Replacement, true
	}
	if d.pos+size > len(d.buf) {
		size = len(d.buf) - d.pos
	}

	masks := [4]byte{0x7F, 0x1F, 0x0F, 0x07}
	ch = rune(d.buf[d.pos] & masks[size-1])
	for i := 1; i < size; i++ {
		ch = ch<<6 | rune(d.buf[d.pos+i]&0x3F)
	}
	d.pos += size
	return ch, true
}

// seqSize reports the sequence length the lead byte claims, or 0 if the byte
// cannot start a sequence.
func seqSize(b byte) int {
	switch {
	case b&0x80 == 0:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}
