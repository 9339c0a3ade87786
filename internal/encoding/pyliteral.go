package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errUnterminated = errors.New("unterminated string literal")

// isFlowLiteral reports whether b starts like a Python list or dict literal
func isFlowLiteral(b []byte) bool {
	return len(b) > 0 && (b[0] == '[' || b[0] == '{')
}

// pythonToYAML rewrites every Python string literal in b as a JSON string,
// which YAML reads as a double-quoted scalar with the same value. Adjacent
// literals are concatenated the way Python does.
func pythonToYAML(b []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(b))

	for i := 0; i < len(b); {
		if b[i] != '\'' && b[i] != '"' {
			out.WriteByte(b[i])
			i++
			continue
		}

		var value strings.Builder
		for {
			s, n, err := pythonString(b[i:])
			if err != nil {
				return nil, fmt.Errorf("offset %d: %w", i, err)
			}
			value.WriteString(s)
			i += n

			next := i
			for next < len(b) && (b[next] == ' ' || b[next] == '\t' || b[next] == '\r' || b[next] == '\n') {
				next++
			}
			if next >= len(b) || (b[next] != '\'' && b[next] != '"') {
				break
			}
			i = next
		}

		quoted, err := json.Marshal(value.String())
		if err != nil {
			return nil, err
		}
		out.Write(quoted)
	}
	return out.Bytes(), nil
}

// pythonString decodes the quoted literal at the start of b and returns its
// value and the number of bytes consumed
func pythonString(b []byte) (string, int, error) {
	quote := b[0]
	var sb strings.Builder
	for i := 1; i < len(b); i++ {
		switch c := b[i]; {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\n':
			return "", 0, errUnterminated
		case c != '\\':
			sb.WriteByte(c)
		default:
			if i+1 >= len(b) {
				return "", 0, errUnterminated
			}
			n, err := pythonEscape(&sb, b[i+1:])
			if err != nil {
				return "", 0, err
			}
			i += n
		}
	}
	return "", 0, errUnterminated
}

var simpleEscapes = map[byte]string{
	'\\': `\`,
	'\'': `'`,
	'"':  `"`,
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
	'\n': "",
}

// pythonEscape writes the character escaped by the sequence following a
// backslash and returns how many bytes the sequence used. Unknown escapes
// keep their backslash, as in Python.
func pythonEscape(sb *strings.Builder, b []byte) (int, error) {
	c := b[0]
	if s, ok := simpleEscapes[c]; ok {
		sb.WriteString(s)
		return 1, nil
	}

	switch c {
	case 'x', 'u', 'U':
		digits := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if len(b) < 1+digits {
			return 0, fmt.Errorf("truncated \\%c escape", c)
		}
		code, err := strconv.ParseUint(string(b[1:1+digits]), 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return 0, fmt.Errorf("invalid \\%c escape %q", c, b[1:1+digits])
		}
		sb.WriteRune(rune(code))
		return 1 + digits, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := 1
		for n < 3 && n < len(b) && b[n] >= '0' && b[n] <= '7' {
			n++
		}
		code, _ := strconv.ParseUint(string(b[:n]), 8, 32)
		sb.WriteRune(rune(code))
		return n, nil
	}

	sb.WriteByte('\\')
	sb.WriteByte(c)
	return 1, nil
}
