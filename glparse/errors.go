package glparse

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError is a single positioned error found in shader source.
type SyntaxError struct {
	Pos Location
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrorList is the list of all errors found while lexing and parsing one source.
// It is returned as a single error by [Parse] when non-empty.
type ErrorList []*SyntaxError

// Add appends an error at pos.
func (l *ErrorList) Add(pos Location, msg string) {
	*l = append(*l, &SyntaxError{Pos: pos, Msg: msg})
}

// Addf appends a formatted error at pos.
func (l *ErrorList) Addf(pos Location, format string, args ...any) {
	l.Add(pos, fmt.Sprintf(format, args...))
}

// Err returns nil if the list is empty and the list itself otherwise.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Error lists every error, one per line.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return "shader syntax: " + l[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(l)))
	sb.WriteString(" shader syntax errors:")
	for _, e := range l {
		sb.WriteString("\n\t")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap returns the individual errors for use with [errors.As].
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i := range l {
		errs[i] = l[i]
	}
	return errs
}

// FormatWithContext formats every error followed by the offending source line
// and a caret under the error column.
func (l ErrorList) FormatWithContext(source string) string {
	lines := strings.Split(source, "\n")
	var sb strings.Builder
	for i, e := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
		if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
			continue
		}
		line := strings.TrimRight(lines[e.Pos.Line-1], "\r")
		sb.WriteString("\n\t")
		sb.WriteString(line)
		sb.WriteString("\n\t")
		col := min(max(e.Pos.Col-1, 0), len(line))
		for _, c := range line[:col] {
			if c == '\t' {
				sb.WriteByte('\t')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('^')
	}
	return sb.String()
}
