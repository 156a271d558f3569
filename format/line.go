package format

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dhamidi/saic/java/symbols"
)

// LineEncoder writes one line per class and member with columns padded to
// a common display width.
type LineEncoder struct {
	w     io.Writer
	table *symbols.Table
	class symbols.SymbolID
}

func NewLineEncoder(w io.Writer, table *symbols.Table) *LineEncoder {
	return &LineEncoder{w: w, table: table}
}

func (e *LineEncoder) Encode(class symbols.SymbolID) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	c := e.table.Sym(e.class)
	rows := [][]string{{
		classKind(c), c.FullName, visibility(c.Flags), joinOrDash(modifiers(c.Flags)), c.State.String(),
	}}

	fields, methods, classes := members(e.table, e.class)
	for _, f := range fields {
		rows = append(rows, []string{
			"field", f.Name, typeString(f.Type), visibility(f.Flags), joinOrDash(modifiers(f.Flags)),
		})
	}
	for _, m := range methods {
		rows = append(rows, []string{
			"method", m.Name, resultType(m), joinOrDash(parameterTypes(e.table, m)),
			visibility(m.Flags), joinOrDash(modifiers(m.Flags)),
		})
	}
	for _, k := range classes {
		rows = append(rows, []string{"member", k.Name, classKind(k), visibility(k.Flags)})
	}

	return []byte(alignColumns(rows)), nil
}

// alignColumns pads every cell but the last of each row to the widest cell
// of its column. Widths are display widths, so non-ASCII identifiers line
// up in a terminal.
func alignColumns(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
