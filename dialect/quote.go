package dialect

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SkipQuoted reports whether s[i] opens a quoted section (string literal or quoted
// identifier) and, if so, returns the index just past its closing quote. Doubled
// closing characters inside the section are escapes, and so is a backslash in
// string literals of dialects with BackslashEscapes. An unterminated section
// extends to the end of s.
func (b *base) SkipQuoted(s string, i int) (int, bool) {
	open := s[i]
	closing := open
	switch open {
	case '\'', '"', '`':
	case '[':
		if !b.caps.BracketIdentifiers {
			return i, false
		}
		closing = ']'
	default:
		return i, false
	}
	escapes := b.caps.BackslashEscapes && (open == '\'' || open == '"')
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if escapes {
				j++
			}
		case closing:
			if j+1 < len(s) && s[j+1] == closing {
				j++
				continue
			}
			return j + 1, true
		}
	}
	return len(s), true
}

func (b *base) QuoteValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return b.caps.trueLiteral()
		}
		return b.caps.falseLiteral()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []byte:
		return b.quoteBytes(v)
	case time.Time:
		return b.quoteString(v.Format("2006-01-02 15:04:05"))
	case string:
		return b.quoteString(v)
	case fmt.Stringer:
		return b.quoteString(v.String())
	default:
		return b.quoteString(fmt.Sprint(v))
	}
}

func (c *Capabilities) trueLiteral() string {
	if c.Types.Boolean == "BOOLEAN" {
		return "TRUE"
	}
	return "1"
}

func (c *Capabilities) falseLiteral() string {
	if c.Types.Boolean == "BOOLEAN" {
		return "FALSE"
	}
	return "0"
}

// doubleQuotes quotes s with q, doubling embedded q characters.
func doubleQuotes(q string) func(string) string {
	return func(s string) string {
		return q + strings.ReplaceAll(s, q, q+q) + q
	}
}

func hexLiteral(prefix, suffix string) func([]byte) string {
	return func(b []byte) string {
		return prefix + hex.EncodeToString(b) + suffix
	}
}
