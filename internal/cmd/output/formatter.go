// Package output renders command results as plain lines, tables, JSON
// or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Format names an output format selected with --format.
type Format string

const (
	FormatPlain Format = "plain"
	FormatTable Format = "table"
	FormatWide  Format = "wide" // table with every facet column
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter writes a result to w.
type Formatter interface {
	Format(w io.Writer, data any) error
}

type formatFunc func(io.Writer, any) error

func (f formatFunc) Format(w io.Writer, data any) error { return f(w, data) }

var formatters = map[Format]formatFunc{
	FormatPlain: writePlain,
	FormatTable: writeTable,
	FormatWide:  writeTable,
	FormatJSON:  writeJSON,
	FormatYAML:  writeYAML,
}

// NewFormatter returns the formatter for f. Unknown formats print plain.
func NewFormatter(f Format) Formatter {
	if fn, ok := formatters[f]; ok {
		return fn
	}
	return formatFunc(writePlain)
}

// ParseFormat validates a --format value. Empty means plain.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == "" {
		return FormatPlain, nil
	}
	if _, ok := formatters[f]; !ok {
		return "", fmt.Errorf("invalid format %q: must be one of: plain, table, wide, json, yaml", s)
	}
	return f, nil
}

// Data is a table. Right lists the columns to right-align.
type Data struct {
	Headers []string
	Rows    [][]string
	Right   []int
}

// Lines turns a list into a one column table.
func Lines(items []string) Data {
	rows := make([][]string, len(items))
	for i, s := range items {
		rows[i] = []string{s}
	}
	return Data{Rows: rows}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// writeTable renders Data and string lists as tables. Other values have
// no tabular form and are written as JSON.
func writeTable(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return renderTable(w, v)
	case *Data:
		return renderTable(w, *v)
	case []string:
		return renderTable(w, Lines(v))
	}
	return writeJSON(w, data)
}

func renderTable(w io.Writer, data Data) error {
	var cfg tablewriter.Config
	if len(data.Right) > 0 {
		align := make([]tw.Align, len(data.Headers))
		for i := range align {
			align[i] = tw.AlignLeft
			if slices.Contains(data.Right, i) {
				align[i] = tw.AlignRight
			}
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: align}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(data.Headers) > 0 {
		table.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}

// writePlain prints one item per line and table rows tab separated
// without headers, which is what scripts consuming clef expect.
func writePlain(w io.Writer, data any) error {
	var lines []string
	switch v := data.(type) {
	case []string:
		lines = v
	case Data:
		for _, row := range v.Rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
	case fmt.Stringer:
		lines = []string{v.String()}
	default:
		return writeJSON(w, data)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
