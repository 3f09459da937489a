package dispatch

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/stream"
)

// Mention parses a leading mention of either the direct (<@id>) or nickname
// (<@!id>) form and compares the encoded id against Configuration.OnMention.
// The id requires an exact match; a malformed mention or a foreign id
// restores the cursor and reports no match, which is not an error.
func Mention(st *stream.Stream, cfg *Configuration) (string, bool) {
	if cfg.OnMention == "" {
		return "", false
	}

	start := st.Offset()

	if !st.Eat("<@") {
		return "", false
	}

	// Optional nickname marker.
	st.Eat("!")

	id := st.TakeWhile(unicode.IsDigit)

	if !st.Eat(">") {
		st.SetOffset(start)
		return "", false
	}

	if id != cfg.OnMention {
		st.SetOffset(start)
		return "", false
	}

	return id, true
}

// findPrefix compares each candidate prefix, dynamic resolvers first in
// registration order and then the static list, against the text at the
// cursor. The cursor is not moved.
func findPrefix(ctx context.Context, msg Message, cfg *Configuration, st *stream.Stream) (string, bool) {
	tryMatch := func(prefix string) (string, bool) {
		peeked := cfg.fold(st.PeekFor(utf8.RuneCountInString(prefix)))
		if cfg.fold(prefix) == peeked {
			return peeked, true
		}
		return "", false
	}

	for _, f := range cfg.DynamicPrefixes {
		if p, ok := f(ctx, msg); ok && p != "" {
			if m, ok := tryMatch(p); ok {
				return m, true
			}
		}
	}

	for _, p := range cfg.Prefixes {
		if m, ok := tryMatch(p); ok {
			return m, true
		}
	}

	return "", false
}

// Prefix determines whether a prefix opens the message and consumes it.
//
// The prefix may be a mention (<@id>/<@!id>), a dynamically resolved
// prefix, or a static prefix, tried in that order. Whitespace after a
// mention is always consumed; after other prefixes only when
// WithWhitespace.Prefixes is set. No match means "no prefix", not an
// error, and leaves only the whitespace trimming applied.
func Prefix(ctx context.Context, msg Message, st *stream.Stream, cfg *Configuration) (string, bool) {
	if id, ok := Mention(st, cfg); ok {
		st.TakeWhile(unicode.IsSpace)
		return id, true
	}

	p, ok := findPrefix(ctx, msg, cfg, st)
	if ok {
		st.Increment(len(p))
	}

	if cfg.WithWhitespace.Prefixes {
		st.TakeWhile(unicode.IsSpace)
	}

	return p, ok
}
