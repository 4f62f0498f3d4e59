package photometry

import "fmt"

// ParseErrorKind classifies why an IES file failed to parse.
type ParseErrorKind int

const (
	// MalformedNumber means a token that should be numeric failed to parse.
	MalformedNumber ParseErrorKind = iota
	// UnexpectedEndOfData means the file ended before the element counts
	// declared in the photometric header were satisfied.
	UnexpectedEndOfData
	// MissingTiltSpecifier means no TILT= line was found where required.
	MissingTiltSpecifier
)

func (k ParseErrorKind) String() string {
	switch k {
	case MalformedNumber:
		return "malformed number"
	case UnexpectedEndOfData:
		return "unexpected end of data"
	case MissingTiltSpecifier:
		return "missing tilt specifier"
	default:
		return "unknown parse error"
	}
}

// ParseError reports an unrecoverable problem in an IES file. Parsing is
// all-or-nothing: no partial Dataset is ever returned alongside an error.
type ParseError struct {
	Kind  ParseErrorKind
	Line  int    // 1-based physical line number, 0 when past end of input
	Token string // offending token for MalformedNumber, otherwise empty
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("ies parse: %s %q at line %d", e.Kind, e.Token, e.Line)
	}
	if e.Line > 0 {
		return fmt.Sprintf("ies parse: %s at line %d", e.Kind, e.Line)
	}
	return fmt.Sprintf("ies parse: %s", e.Kind)
}
