package diag

import (
	"fmt"
	"strings"

	"github.com/dhamidi/saic/java/tree"
)

// Severity orders diagnostics from least to most important.
type Severity uint8

const (
	SevNote Severity = iota
	SevWarning
	SevMandatoryWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "note"
	case SevWarning:
		return "warning"
	case SevMandatoryWarning:
		return "mandatory-warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Flag qualifies a diagnostic.
type Flag uint8

const (
	// FlagRecoverable marks errors that an IDE driver may retry past, such
	// as completion failures of classes that may appear later.
	FlagRecoverable Flag = 1 << iota
	// FlagClassLevel marks errors recorded against a whole class.
	FlagClassLevel
)

// Diagnostic is an immutable report at a source location.
type Diagnostic struct {
	Severity Severity
	File     string
	Pos      tree.Position
	Line     int
	Column   int
	Key      string
	Args     []any
	Flags    Flag
	// Message is the localized text, rendered when the diagnostic is
	// reported.
	Message string

	tree tree.Node
}

// Tree returns the node the diagnostic was reported against, if any.
func (d Diagnostic) Tree() tree.Node { return d.tree }

// Code is the message key without the "compiler.<kind>." prefix.
func (d Diagnostic) Code() string {
	for _, prefix := range []string{"compiler.err.", "compiler.warn.", "compiler.note.", "compiler.misc."} {
		if strings.HasPrefix(d.Key, prefix) {
			return strings.TrimPrefix(d.Key, prefix)
		}
	}
	return d.Key
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	} else if d.Pos.Preferred >= 0 {
		loc = fmt.Sprintf("%s@%d", d.File, d.Pos.Preferred)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
}
