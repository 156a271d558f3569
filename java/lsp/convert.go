package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/tree"
)

const source = "saic"

func severity(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SevError:
		return protocol.DiagnosticSeverityError
	case diag.SevWarning, diag.SevMandatoryWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// position converts a source offset to a zero-based LSP position. Offsets
// the line map cannot place land at the start of the file.
func position(lines *tree.LineMap, pos int) protocol.Position {
	line, col := lines.Line(pos), lines.Column(pos)
	if line == 0 || col == 0 {
		return protocol.Position{}
	}
	l, err := safecast.Conv[protocol.UInteger](line - 1)
	if err != nil {
		return protocol.Position{}
	}
	c, err := safecast.Conv[protocol.UInteger](col - 1)
	if err != nil {
		return protocol.Position{Line: l}
	}
	return protocol.Position{Line: l, Character: c}
}

// ToProtocol converts d to an LSP diagnostic, using lines to place it.
func ToProtocol(d diag.Diagnostic, lines *tree.LineMap) protocol.Diagnostic {
	start := d.Pos.Preferred
	if d.Pos.Start >= 0 && d.Pos.Start <= start {
		start = d.Pos.Start
	}
	end := d.Pos.End
	if end < start {
		end = start
	}
	sev := severity(d.Severity)
	src := source
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: position(lines, start),
			End:   position(lines, end),
		},
		Severity: &sev,
		Code:     &protocol.IntegerOrString{Value: d.Code()},
		Source:   &src,
		Message:  d.Message,
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}
