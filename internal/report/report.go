// Package report renders check results for the console or as JSON/YAML documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/internal/service"
	"github.com/rwdp-check/pkg/icd10"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Meta describes the run that produced a report
type Meta struct {
	RunID         string    `json:"run_id" yaml:"run_id"`
	Command       string    `json:"command" yaml:"command"`
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at"`
	Year          string    `json:"year,omitempty" yaml:"year,omitempty"`
	IncludeExtern *bool     `json:"include_extern,omitempty" yaml:"include_extern,omitempty"`
	File          string    `json:"file,omitempty" yaml:"file,omitempty"`
}

// NewMeta creates report metadata for a run
func NewMeta(runID, command string) Meta {
	return Meta{
		RunID:       runID,
		Command:     command,
		GeneratedAt: time.Now().UTC(),
	}
}

// WithQuery adds the diagnosis year and the extern setting of a database query
func (m Meta) WithQuery(year string, includeExtern bool) Meta {
	m.Year = year
	m.IncludeExtern = &includeExtern
	return m
}

// WithFile adds the path of the file that was read or written
func (m Meta) WithFile(path string) Meta {
	m.File = path
	return m
}

// Report is a renderable check result
type Report interface {
	text(s Styles) string
}

// GroupReport lists the number of conditions per ICD-10 group
type GroupReport struct {
	Meta     Meta                    `json:"meta" yaml:"meta"`
	Groups   []domain.Icd10GroupSize `json:"groups" yaml:"groups"`
	Relevant int                     `json:"relevant" yaml:"relevant"`
	Total    int                     `json:"total" yaml:"total"`
}

// NewGroupReport creates a group report and computes its totals
func NewGroupReport(meta Meta, groups []domain.Icd10GroupSize) *GroupReport {
	relevant, total := icd10.Totals(groups)
	return &GroupReport{
		Meta:     meta,
		Groups:   groups,
		Relevant: relevant,
		Total:    total,
	}
}

// ExportReport summarizes a written condition file
type ExportReport struct {
	Meta       Meta `json:"meta" yaml:"meta"`
	Conditions int  `json:"conditions" yaml:"conditions"`
}

// ComparisonReport is the result of comparing database conditions with a CSV file
type ComparisonReport struct {
	Meta   Meta                      `json:"meta" yaml:"meta"`
	Result *service.RecordComparison `json:"result" yaml:"result"`
}

// ExportCheckReport is the result of checking an export protocol against its export package
type ExportCheckReport struct {
	Meta    Meta                        `json:"meta" yaml:"meta"`
	Package string                      `json:"package" yaml:"package"`
	Result  *service.ProtocolComparison `json:"result" yaml:"result"`
}

// Printer writes reports in the configured format
type Printer struct {
	w      io.Writer
	format string
	styles Styles
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, config domain.ReportConfig) *Printer {
	format := strings.ToLower(config.Format)
	if format == "" {
		format = FormatText
	}
	return &Printer{
		w:      w,
		format: format,
		styles: NewStyles(w, config.Color),
	}
}

// Print renders r
func (p *Printer) Print(r Report) error {
	switch p.format {
	case FormatText:
		_, err := io.WriteString(p.w, r.text(p.styles))
		return err

	case FormatJSON:
		encoder := json.NewEncoder(p.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)

	case FormatYAML:
		encoder := yaml.NewEncoder(p.w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()
	}

	return domain.NewValidationError("report.format", "must be one of text, json, yaml", p.format)
}

// Progress writes a transient status line for text output. Machine readable
// formats do not get status lines.
func (p *Printer) Progress(format string, args ...interface{}) {
	if p.format != FormatText {
		return
	}
	fmt.Fprintln(p.w, p.styles.Info.Render(fmt.Sprintf(format, args...)))
}
