package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/combo/pkg/filtering"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputYAML  outputFormat = "yaml"
	outputJSON  outputFormat = "json"
	outputTOML  outputFormat = "toml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return outputTable, nil
	case "yaml", "yml":
		return outputYAML, nil
	case "json":
		return outputJSON, nil
	case "toml":
		return outputTOML, nil
	default:
		return "", fmt.Errorf("invalid --output %q (want table|yaml|json|toml)", s)
	}
}

// report is the printed state of the widget.
type report struct {
	ID          string        `json:"id" yaml:"id" toml:"id"`
	Search      string        `json:"search,omitempty" yaml:"search,omitempty" toml:"search,omitempty"`
	Total       int           `json:"total" yaml:"total" toml:"total"`
	Visible     int           `json:"visible" yaml:"visible" toml:"visible"`
	Groups      []groupReport `json:"groups" yaml:"groups" toml:"groups"`
	Selected    []any         `json:"selected" yaml:"selected" toml:"selected"`
	DisplayText string        `json:"display_text" yaml:"display_text" toml:"display_text"`
	AddItem     string        `json:"add_item,omitempty" yaml:"add_item,omitempty" toml:"add_item,omitempty"`
}

// groupReport is one labeled section; Name is empty when ungrouped.
type groupReport struct {
	Name  string       `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Items []itemReport `json:"items" yaml:"items" toml:"items"`
}

type itemReport struct {
	Key      any    `json:"key" yaml:"key" toml:"key"`
	Label    string `json:"label" yaml:"label" toml:"label"`
	Selected bool   `json:"selected" yaml:"selected" toml:"selected"`
}

func buildReport(w widget) report {
	r := report{
		Search:      w.SearchText(),
		Total:       len(w.Data()),
		Visible:     len(w.FilteredData()),
		Groups:      []groupReport{},
		Selected:    []any{},
		DisplayText: w.DisplayText(),
	}
	if id, ok := w.(interface{ ID() string }); ok {
		r.ID = id.ID()
	}
	for _, item := range w.Selection() {
		r.Selected = append(r.Selected, w.KeyOf(item))
	}
	if w.IsAddItemVisible() {
		r.AddItem = strings.TrimSpace(w.SearchText())
	}

	var cur *groupReport
	for _, e := range w.Display() {
		if e.IsHeader() {
			r.Groups = append(r.Groups, groupReport{Name: filtering.Stringify(e.GroupValue()), Items: []itemReport{}})
			cur = &r.Groups[len(r.Groups)-1]
			continue
		}
		if cur == nil {
			r.Groups = append(r.Groups, groupReport{Items: []itemReport{}})
			cur = &r.Groups[len(r.Groups)-1]
		}
		k := w.KeyOf(e.Value())
		cur.Items = append(cur.Items, itemReport{Key: k, Label: w.DisplayOf(e.Value()), Selected: w.IsSelected(k)})
	}
	return r
}

func render(out io.Writer, r report, format outputFormat, noColor bool, width int) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case outputJSON:
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	case outputYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(r)
		data = buf.Bytes()
	case outputTOML:
		data, err = toml.Marshal(r)
	default:
		data = []byte(renderTable(r, noColor, width))
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = out.Write(data)
	return err
}

// renderTable prints the visible list with group headers and the
// selection summary.
func renderTable(r report, noColor bool, width int) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	check := lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	if noColor {
		header, muted, check = lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle()
	}

	keyWidth := 0
	for _, g := range r.Groups {
		for _, it := range g.Items {
			keyWidth = max(keyWidth, runewidth.StringWidth(filtering.Stringify(it.Key)))
		}
	}
	keyWidth = min(keyWidth, 24)

	var b strings.Builder
	for _, g := range r.Groups {
		indent := "  "
		if g.Name != "" {
			b.WriteString(header.Render(g.Name))
			b.WriteByte('\n')
			indent = "    "
		}
		for _, it := range g.Items {
			mark := "[ ]"
			if it.Selected {
				mark = check.Render("[x]")
			}
			key := runewidth.FillRight(runewidth.Truncate(filtering.Stringify(it.Key), keyWidth, "…"), keyWidth)
			line := indent + mark + " " + key
			if it.Label != filtering.Stringify(it.Key) {
				line += "  " + it.Label
			}
			if width > 0 && runewidth.StringWidth(line) > width {
				line = runewidth.Truncate(line, width, "…")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if len(r.Groups) == 0 {
		b.WriteString(muted.Render("  no matches"))
		b.WriteByte('\n')
	}
	if r.AddItem != "" {
		b.WriteString(muted.Render(fmt.Sprintf("  + add %q", r.AddItem)))
		b.WriteByte('\n')
	}
	summary := fmt.Sprintf("%d of %d items", r.Visible, r.Total)
	if r.DisplayText != "" {
		summary += " · selected: " + r.DisplayText
	}
	b.WriteString(muted.Render(summary))
	b.WriteByte('\n')
	return b.String()
}
