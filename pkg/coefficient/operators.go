package coefficient

import (
	"fmt"
	"regexp"
	"strings"

	"mercator-hq/rating/pkg/numeric"
)

// Compare evaluates left <op> right. NUMBER comparisons fail when either side
// is not a number; LIKE always compares text.
func Compare(op Operator, kind DataKind, left, right string) (bool, error) {
	if op == OpLike {
		return like(left, right), nil
	}

	var c int
	if kind == KindNumber {
		l, ok := numeric.Parse(left)
		if !ok {
			return false, fmt.Errorf("not a number: %q", left)
		}
		r, ok := numeric.Parse(right)
		if !ok {
			return false, fmt.Errorf("not a number: %q", right)
		}
		c = l.Cmp(r)
	} else {
		c = strings.Compare(left, right)
	}

	switch op {
	case OpEqual:
		return c == 0, nil
	case OpNotEqual:
		return c != 0, nil
	case OpGreater:
		return c > 0, nil
	case OpLess:
		return c < 0, nil
	case OpGreaterEqual:
		return c >= 0, nil
	case OpLessEqual:
		return c <= 0, nil
	default:
		return false, fmt.Errorf("unknown operator: %q", op)
	}
}

// InferKind returns NUMBER when both sides are numbers, STRING otherwise.
func InferKind(left, right string) DataKind {
	if _, ok := numeric.Parse(left); !ok {
		return KindString
	}
	if _, ok := numeric.Parse(right); !ok {
		return KindString
	}
	return KindNumber
}

// like matches s against an SQL LIKE pattern ("%" any run, "_" one
// character). Like SQLite's built-in LIKE, case is ignored for ASCII letters
// only.
func like(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	for _, r := range asciiLower(pattern) {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(asciiLower(s))
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// castNumber mirrors SQLite's CAST(x AS REAL): leading whitespace is skipped,
// the longest numeric prefix is converted and text without one becomes zero.
func castNumber(s string) string {
	s = strings.TrimLeft(s, " \t\n\v\f\r")

	var sb strings.Builder
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			sb.WriteByte('-')
		}
		i++
	}

	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]

	var fracPart string
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[i+1 : j]
		if intPart != "" || fracPart != "" {
			i = j
		}
	}
	if intPart == "" && fracPart == "" {
		return "0"
	}

	if intPart == "" {
		intPart = "0"
	}
	sb.WriteString(intPart)
	if fracPart != "" {
		sb.WriteByte('.')
		sb.WriteString(fracPart)
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			sb.WriteByte('e')
			sb.WriteString(s[i+1 : k])
		}
	}

	d, ok := numeric.Parse(sb.String())
	if !ok {
		return "0"
	}
	return numeric.Format(d)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
