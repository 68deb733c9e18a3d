package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rwdp-check/pkg/icd10"
)

// Semantic colors
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Styles used by the console renderer
type Styles struct {
	Title     lipgloss.Style
	Section   lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
	Label     lipgloss.Style
	Included  lipgloss.Style
	Excluded  lipgloss.Style
	Info      lipgloss.Style
}

// NewStyles creates the console styles for w. Without color all styles render plain text.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle()
	if !color {
		return Styles{
			Title: plain, Section: plain, Muted: plain, Highlight: plain,
			Label: plain, Included: plain, Excluded: plain, Info: plain,
		}
	}

	return Styles{
		Title:     r.NewStyle().Foreground(Warning),
		Section:   r.NewStyle().Foreground(Success),
		Muted:     r.NewStyle().Faint(true),
		Highlight: r.NewStyle().Bold(true).Foreground(Destructive),
		Label:     r.NewStyle().Bold(true).Underline(true),
		Included:  r.NewStyle().Foreground(Warning),
		Excluded:  r.NewStyle().Foreground(Success),
		Info:      r.NewStyle().Foreground(Info),
	}
}

const (
	groupColumnWidth = 20
	countColumnWidth = 6
	columnGap        = "   "
)

type cell struct {
	text      string
	highlight bool
}

func plainCell(text string) cell {
	return cell{text: text}
}

// codeCell highlights codes of tracked ICD-10 groups
func codeCell(code string) cell {
	return cell{text: code, highlight: icd10.IsRelevant(code)}
}

// table renders left aligned columns. Widths are computed from the unstyled text.
type table struct {
	headers []string
	rows    [][]cell
}

func (t *table) add(cells ...cell) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(sb *strings.Builder, s Styles) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) && lipgloss.Width(c.text) > widths[i] {
				widths[i] = lipgloss.Width(c.text)
			}
		}
	}

	line := func(cells []cell) {
		parts := make([]string, 0, len(cells))
		for i, c := range cells {
			text := c.text
			if i < len(cells)-1 {
				text += strings.Repeat(" ", widths[i]-lipgloss.Width(c.text))
			}
			if c.highlight {
				text = s.Highlight.Render(text)
			}
			parts = append(parts, text)
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, columnGap), " "))
		sb.WriteString("\n")
	}

	headers := make([]cell, len(t.headers))
	for i, h := range t.headers {
		headers[i] = plainCell(h)
	}
	line(headers)
	for _, row := range t.rows {
		line(row)
	}
}

func (r *GroupReport) text(s Styles) string {
	var sb strings.Builder

	if r.Meta.IncludeExtern != nil {
		sb.WriteString(externNotice(s, *r.Meta.IncludeExtern))
	}

	sb.WriteString(s.Title.Render("Conditions by ICD-10 group"))
	sb.WriteString("\n")

	bySchema := false
	for _, g := range r.Groups {
		if g.SchemaVersion != "" {
			bySchema = true
			break
		}
	}

	width := groupColumnWidth
	for _, g := range r.Groups {
		name := g.Name
		if bySchema {
			name = fmt.Sprintf("%-*s %s", groupColumnWidth, g.Name, g.SchemaVersion)
		}
		if len(name) > width {
			width = len(name)
		}
	}

	for _, g := range r.Groups {
		name := g.Name
		if bySchema {
			name = fmt.Sprintf("%-*s %s", groupColumnWidth, g.Name, g.SchemaVersion)
		}
		fmt.Fprintf(&sb, "%-*s=%*d\n", width, name, countColumnWidth, g.Size)
	}

	rule := s.Muted.Render(strings.Repeat("─", width+countColumnWidth+1))
	sb.WriteString(rule + "\n")
	sb.WriteString(s.Muted.Render(fmt.Sprintf("%-*s=%*d", width, "Sum (C**.*/D**.*)", countColumnWidth, r.Relevant)) + "\n")
	sb.WriteString(s.Muted.Render(fmt.Sprintf("%-*s=%*d", width, "Total", countColumnWidth, r.Total)) + "\n")
	sb.WriteString(rule + "\n")

	return sb.String()
}

func (r *ExportReport) text(s Styles) string {
	var sb strings.Builder

	sb.WriteString(s.Section.Render(fmt.Sprintf("%d conditions for year %s exported to file '%s'", r.Conditions, r.Meta.Year, r.Meta.File)))
	sb.WriteString("\n")
	if r.Meta.IncludeExtern != nil {
		sb.WriteString(externNotice(s, *r.Meta.IncludeExtern))
	}

	return sb.String()
}

func (r *ComparisonReport) text(s Styles) string {
	var sb strings.Builder
	res := r.Result

	if r.Meta.IncludeExtern != nil {
		sb.WriteString(externNotice(s, *r.Meta.IncludeExtern))
	}

	section(&sb, s, fmt.Sprintf("%d conditions from the database for year %s missing in file '%s'", len(res.OnlyInA), r.Meta.Year, r.Meta.File))
	missingInFile := &table{headers: []string{"Condition-ID", "Date", "ICD10", "PAT-ID"}}
	for _, c := range res.OnlyInA {
		missingInFile.add(plainCell(c.ConditionID), plainCell(c.DiagnosisDate), codeCell(c.ICD10Code), plainCell(c.PatientID))
	}
	missingInFile.render(&sb, s)

	section(&sb, s, fmt.Sprintf("%d conditions from file '%s' missing in the database for year %s", len(res.OnlyInB), r.Meta.File, r.Meta.Year))
	missingInDatabase := &table{headers: []string{"Condition-ID", "Date", "ICD10"}}
	for _, c := range res.OnlyInB {
		missingInDatabase.add(plainCell(c.ConditionID), plainCell(c.DiagnosisDate), codeCell(c.ICD10Code))
	}
	missingInDatabase.render(&sb, s)

	section(&sb, s, fmt.Sprintf("%d conditions with different ICD-10 code", len(res.CodeMismatches)))
	mismatches := &table{headers: []string{"Condition-ID", "Date", "DB", "CSV", "PAT-ID", "Matches"}}
	for _, m := range res.CodeMismatches {
		matches := ""
		if m.Ambiguous() {
			matches = strconv.Itoa(m.Counterparts)
		}
		mismatches.add(
			plainCell(m.Record.ConditionID),
			plainCell(m.Record.DiagnosisDate),
			codeCell(m.Record.ICD10Code),
			codeCell(m.Counterpart.ICD10Code),
			plainCell(m.Record.PatientID),
			plainCell(matches),
		)
	}
	mismatches.render(&sb, s)

	return sb.String()
}

func (r *ExportCheckReport) text(s Styles) string {
	var sb strings.Builder
	res := r.Result

	sb.WriteString(s.Title.Render(fmt.Sprintf("Export package %s: %d reports in file '%s', %d reports in the database",
		r.Package, res.DocumentFragments, r.Meta.File, res.DatabaseFragments)))
	sb.WriteString("\n")

	section(&sb, s, fmt.Sprintf("%d reports in the database but not in file '%s'", len(res.MissingInDocument), r.Meta.File))
	missingInFile := &table{headers: []string{"Meldung-ID", "DB-Key", "ICD10", "Export row"}}
	for _, f := range res.MissingInDocument {
		missingInFile.add(plainCell(f.ID), plainCell(f.DatabaseKey), codeCell(f.ICD10Code), plainCell(f.StorageKey))
	}
	missingInFile.render(&sb, s)

	section(&sb, s, fmt.Sprintf("%d reports in file '%s' but not in the database", len(res.MissingInDatabase), r.Meta.File))
	missingInDatabase := &table{headers: []string{"Meldung-ID", "DB-Key", "ICD10"}}
	for _, f := range res.MissingInDatabase {
		missingInDatabase.add(plainCell(f.ID), plainCell(f.DatabaseKey), codeCell(f.ICD10Code))
	}
	missingInDatabase.render(&sb, s)

	section(&sb, s, fmt.Sprintf("%d export rows with more than one report", len(res.DuplicateStorageRows)))
	duplicates := &table{headers: []string{"Export row", "Reports", "Meldung-IDs"}}
	for _, d := range res.DuplicateStorageRows {
		duplicates.add(plainCell(d.Key), plainCell(strconv.Itoa(d.Fragments)), plainCell(strings.Join(d.IDs, ", ")))
	}
	duplicates.render(&sb, s)

	section(&sb, s, fmt.Sprintf("%d reports with different content", len(res.ContentMismatches)))
	mismatches := &table{headers: []string{"Meldung-ID", "DB-Key", "File", "DB", "Export row"}}
	for _, m := range res.ContentMismatches {
		mismatches.add(
			plainCell(m.Document.ID),
			plainCell(m.Document.DatabaseKey),
			codeCell(m.Document.ICD10Code),
			codeCell(m.Database.ICD10Code),
			plainCell(m.Database.StorageKey),
		)
	}
	mismatches.render(&sb, s)

	if len(res.SkippedRows) > 0 {
		sb.WriteString(s.Muted.Render(fmt.Sprintf("%d export rows without patient data skipped: %s",
			len(res.SkippedRows), strings.Join(res.SkippedRows, ", "))))
		sb.WriteString("\n")
	}

	return sb.String()
}

func section(sb *strings.Builder, s Styles, title string) {
	sb.WriteString(s.Section.Render(title))
	sb.WriteString("\n")
}

func externNotice(s Styles, includeExtern bool) string {
	setting := s.Excluded.Render("excludes")
	suffix := " (default)"
	if includeExtern {
		setting = s.Included.Render("includes")
		suffix = ""
	}
	return fmt.Sprintf("%s The database query %s reports with extern diagnosis%s.\n", s.Label.Render("Note:"), setting, suffix)
}

var (
	_ Report = (*GroupReport)(nil)
	_ Report = (*ExportReport)(nil)
	_ Report = (*ComparisonReport)(nil)
	_ Report = (*ExportCheckReport)(nil)
)
