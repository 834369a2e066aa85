// Package output renders command results as aligned tables or pretty JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter handles output formatting (table or JSON).
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// Field is one labelled value of a detail view.
type Field struct {
	Label string
	Value string
}

// New creates a new Formatter with the specified writer and JSON mode.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{
		Writer:   w,
		JSONMode: jsonMode,
	}
}

// Table outputs data as a formatted table or JSON array depending on mode.
// Headers define column names, rows contain the data.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.tableAsJSON(headers, rows)
	}
	return f.tableAsText(headers, rows)
}

func (f *Formatter) tableAsText(headers []string, rows [][]string) error {
	tw := f.tabwriter()

	separators := make([]string, len(headers))
	for i, h := range headers {
		separators[i] = strings.Repeat("-", len(h))
	}

	lines := append([][]string{headers, separators}, rows...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// tableAsJSON renders a table as a JSON array of objects.
func (f *Formatter) tableAsJSON(headers []string, rows [][]string) error {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		result = append(result, zip(headers, row))
	}
	return f.Print(result)
}

// Details renders labelled fields as "Label: value" lines, or a JSON object.
func (f *Formatter) Details(fields []Field) error {
	if f.JSONMode {
		obj := make(map[string]string, len(fields))
		for _, fd := range fields {
			obj[fd.Label] = fd.Value
		}
		return f.Print(obj)
	}

	tw := f.tabwriter()
	for _, fd := range fields {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", fd.Label, fd.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Result prints data as JSON in JSON mode and calls render otherwise.
// Commands use it to emit the full API payload for --json.
func (f *Formatter) Result(data any, render func() error) error {
	if f.JSONMode {
		return f.Print(data)
	}
	return render()
}

// Message prints a line of text. It is suppressed in JSON mode so the
// output stays machine readable.
func (f *Formatter) Message(format string, args ...any) error {
	if f.JSONMode {
		return nil
	}
	_, err := fmt.Fprintf(f.Writer, format+"\n", args...)
	return err
}

// Print outputs data as formatted JSON (pretty-printed) or as a simple string representation.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}

	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}

func (f *Formatter) tabwriter() *tabwriter.Writer {
	return tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
}

func zip(headers, row []string) map[string]string {
	obj := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			obj[h] = row[i]
		} else {
			obj[h] = ""
		}
	}
	return obj
}
