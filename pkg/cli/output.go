package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

// OutputFormat selects how Output renders a result.
type OutputFormat string

const (
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatRaw   OutputFormat = "raw"
)

// ParseFormat validates a --format flag value. The empty string is YAML.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatJSON, FormatTable, FormatRaw:
		return f, nil
	}
	return "", fmt.Errorf("cli: unsupported output format %q", s)
}

// OutputOptions configures Output.
type OutputOptions struct {
	Format OutputFormat

	// File receives the output when set; otherwise Writer or stdout.
	File string

	// Writer overrides File and stdout.
	Writer io.Writer
}

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular results render themselves as a table in FormatTable.
type Tabular interface {
	Table() Table
}

// Output writes result in the configured format. Results that do not
// implement Tabular fall back to YAML in table mode.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("cli: create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatTable:
		if t, ok := result.(Tabular); ok {
			_, err := io.WriteString(w, RenderTable(t.Table()))
			return err
		}
		return outputYAML(w, result)
	case FormatRaw:
		switch v := result.(type) {
		case []byte:
			_, err := w.Write(v)
			return err
		case string:
			_, err := io.WriteString(w, v)
			return err
		case fmt.Stringer:
			_, err := io.WriteString(w, v.String())
			return err
		}
		return outputYAML(w, result)
	}
	return fmt.Errorf("cli: unsupported output format %q", opts.Format)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("cli: format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// RenderTable lays out t in left-aligned columns separated by two spaces,
// with a styled header and a rule beneath it.
func RenderTable(t Table) string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style *lipgloss.Style) {
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				cell = style.Render(cell)
			}
			if i < len(widths)-1 {
				b.WriteString(cell + pad + "  ")
			} else {
				b.WriteString(cell)
			}
		}
		b.WriteString("\n")
	}

	line(t.Headers, &headerStyle)
	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * max(0, len(widths)-1)
	b.WriteString(ruleStyle.Render(strings.Repeat("─", total)) + "\n")
	for _, row := range t.Rows {
		line(row, nil)
	}
	return b.String()
}
