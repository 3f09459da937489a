// Package stream implements the positional text scanner the dispatcher
// walks while resolving a message. A Stream owns a byte offset into an
// immutable source string; every probe either advances the offset or leaves
// it untouched, so callers can save it with Offset and roll back with
// SetOffset.
package stream

import "unicode/utf8"

// Stream is a cursor over a string. The zero value scans the empty string;
// use New for anything else.
type Stream struct {
	src string
	off int
}

// New returns a Stream positioned at the start of src.
func New(src string) *Stream {
	return &Stream{src: src}
}

// Offset returns the current byte offset into the source.
func (s *Stream) Offset() int { return s.off }

// SetOffset moves the cursor to a byte offset previously obtained from
// Offset. Offsets are clamped to the source bounds.
func (s *Stream) SetOffset(off int) {
	if off < 0 {
		off = 0
	}
	if off > len(s.src) {
		off = len(s.src)
	}
	s.off = off
}

// Source returns the full underlying string.
func (s *Stream) Source() string { return s.src }

// Rest returns everything from the cursor to the end of the source.
func (s *Stream) Rest() string { return s.src[s.off:] }

// IsEmpty reports whether the cursor is at the end of the source.
func (s *Stream) IsEmpty() bool { return s.off >= len(s.src) }

// Eat consumes lit if the source continues with it at the cursor. On a
// mismatch the cursor does not move.
func (s *Stream) Eat(lit string) bool {
	if len(s.src)-s.off < len(lit) || s.src[s.off:s.off+len(lit)] != lit {
		return false
	}
	s.off += len(lit)
	return true
}

// PeekFor returns the next n runes without moving the cursor. Fewer runes
// are returned if the source ends first.
func (s *Stream) PeekFor(n int) string {
	end := s.off
	for i := 0; i < n && end < len(s.src); i++ {
		_, size := utf8.DecodeRuneInString(s.src[end:])
		end += size
	}
	return s.src[s.off:end]
}

// PeekUntil returns, without moving the cursor, the run of runes before the
// first rune for which pred reports true.
func (s *Stream) PeekUntil(pred func(rune) bool) string {
	end := s.off
	for end < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[end:])
		if pred(r) {
			break
		}
		end += size
	}
	return s.src[s.off:end]
}

// TakeWhile consumes and returns the run of runes for which pred reports
// true.
func (s *Stream) TakeWhile(pred func(rune) bool) string {
	start := s.off
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !pred(r) {
			break
		}
		s.off += size
	}
	return s.src[start:s.off]
}

// Increment advances the cursor by n bytes, clamped to the end of the
// source. Callers advance by the byte length of text they already peeked.
func (s *Stream) Increment(n int) {
	s.off += n
	if s.off > len(s.src) {
		s.off = len(s.src)
	}
}
