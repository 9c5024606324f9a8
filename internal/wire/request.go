// Package wire decodes the raw bytes read from a client connection and
// holds the fixed responses written back.
package wire

import (
	"net/textproto"
	"strings"
	"unicode/utf8"
)

const headerTerminator = "\r\n\r\n"

// Request is the structured view of a single read from a connection.
// Raw is kept because routing matches literal prefixes of the decoded text.
type Request struct {
	Raw    string
	Method string
	Target string
	Proto  string
	Header map[string]string
	Body   string
}

// Decode builds a Request from raw bytes. Invalid UTF-8 is replaced rather
// than rejected, so Decode never fails.
func Decode(raw []byte) *Request {
	text := lossyString(raw)

	req := &Request{
		Raw:    text,
		Header: make(map[string]string),
		Body:   ExtractBody(text),
	}

	head := text
	if i := strings.Index(text, headerTerminator); i >= 0 {
		head = text[:i]
	}

	lines := strings.Split(head, "\r\n")
	if fields := strings.Fields(lines[0]); len(fields) > 0 {
		req.Method = fields[0]
		if len(fields) > 1 {
			req.Target = fields[1]
		}
		if len(fields) > 2 {
			req.Proto = fields[2]
		}
	}

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		req.Header[textproto.CanonicalMIMEHeaderKey(key)] = strings.TrimSpace(value)
	}

	return req
}

// PathID returns the id component of a /users/<id> request.
func (r *Request) PathID() string {
	return ExtractID(r.Raw)
}

// ExtractID splits text on "/" and returns the third segment up to its
// first whitespace, e.g. "PUT /users/42 HTTP/1.1" yields "42". It returns
// "" when either step finds nothing.
func ExtractID(text string) string {
	parts := strings.SplitN(text, "/", 4)
	if len(parts) < 3 {
		return ""
	}
	fields := strings.Fields(parts[2])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ExtractBody returns everything after the last blank line separating the
// head from the body, or "" when there is no such separator.
func ExtractBody(text string) string {
	i := strings.LastIndex(text, headerTerminator)
	if i < 0 {
		return ""
	}
	return text[i+len(headerTerminator):]
}

// lossyString replaces each maximal invalid subsequence with one U+FFFD. A
// lead byte followed by some but not all of its continuation bytes counts
// as a single subsequence; any other bad byte is replaced on its own.
func lossyString(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			size = invalidPrefixLen(raw)
		} else {
			b.Write(raw[:size])
		}
		raw = raw[size:]
	}
	return b.String()
}

// invalidPrefixLen returns how many bytes of p, which does not start with a
// valid rune, belong to a truncated sequence.
func invalidPrefixLen(p []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var width int
	switch c := p[0]; {
	case c >= 0xC2 && c <= 0xDF:
		width = 2
	case c == 0xE0:
		width, lo = 3, 0xA0
	case c == 0xED:
		width, hi = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		width = 3
	case c == 0xF0:
		width, lo = 4, 0x90
	case c == 0xF4:
		width, hi = 4, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		width = 4
	default:
		return 1
	}

	n := 1
	for n < width && n < len(p) {
		c := p[n]
		if n == 1 && (c < lo || c > hi) {
			break
		}
		if n > 1 && (c < 0x80 || c > 0xBF) {
			break
		}
		n++
	}
	return n
}
