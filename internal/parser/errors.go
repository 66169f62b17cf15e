package parser

import "errors"

// ErrParse is matched by every ParseError via errors.Is.
var ErrParse = errors.New("email body is not parseable text")

// ParseError reports input that is not text at all. Text without any
// recognisable product line is not an error.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
