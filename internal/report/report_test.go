package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/internal/service"
)

func plainPrinter(buf *bytes.Buffer, format string) *Printer {
	return NewPrinter(buf, domain.ReportConfig{Format: format, Color: false})
}

func testMeta() Meta {
	return NewMeta("run-1", "compare").WithQuery("2024", false).WithFile("opal.csv")
}

func comparison() *service.RecordComparison {
	return &service.RecordComparison{
		OnlyInA: []domain.ConditionRecord{
			{PatientID: "P1", ConditionID: "c1", DiagnosisDate: "2024-01-01", ICD10Code: "C50.1"},
		},
		OnlyInB: []domain.ConditionRecord{
			{ConditionID: "c2", DiagnosisDate: "2024-02-01", ICD10Code: "Z99"},
		},
		CodeMismatches: []service.CodeMismatch{
			{
				Record:       domain.ConditionRecord{ConditionID: "c3", DiagnosisDate: "2024-03-01", ICD10Code: "C17.1"},
				Counterpart:  domain.ConditionRecord{ConditionID: "c3", DiagnosisDate: "2024-03-01", ICD10Code: "C18.0"},
				Counterparts: 2,
			},
		},
	}
}

func TestGroupReport_Text(t *testing.T) {
	var buf bytes.Buffer
	groups := []domain.Icd10GroupSize{
		{Name: "C50, D05", Size: 2},
		{Name: "Other", Size: 1},
	}

	err := plainPrinter(&buf, FormatText).Print(NewGroupReport(NewMeta("run-1", "opal-file"), groups))
	require.NoError(t, err)

	rule := strings.Repeat("─", 27)
	expected := []string{
		"Conditions by ICD-10 group",
		"C50, D05            =     2",
		"Other               =     1",
		rule,
		"Sum (C**.*/D**.*)   =     2",
		"Total               =     3",
		rule,
	}
	assert.Equal(t, expected, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"))
}

func TestGroupReport_TextBySchemaVersion(t *testing.T) {
	var buf bytes.Buffer
	groups := []domain.Icd10GroupSize{
		{Name: "C50, D05", SchemaVersion: "2.2.3", Size: 1},
		{Name: "C50, D05", SchemaVersion: "3.0.0", Size: 4},
	}
	meta := NewMeta("run-1", "database").WithQuery("2024", true)

	require.NoError(t, plainPrinter(&buf, FormatText).Print(NewGroupReport(meta, groups)))

	out := buf.String()
	assert.Contains(t, out, "Note: The database query includes reports with extern diagnosis.")
	assert.Contains(t, out, "C50, D05             2.2.3=     1")
	assert.Contains(t, out, "C50, D05             3.0.0=     4")
	assert.Contains(t, out, "=     5")
}

func TestExportReport_Text(t *testing.T) {
	var buf bytes.Buffer
	meta := NewMeta("run-1", "export").WithQuery("2023", false).WithFile("/tmp/opal.csv")

	require.NoError(t, plainPrinter(&buf, FormatText).Print(&ExportReport{Meta: meta, Conditions: 42}))

	out := buf.String()
	assert.Contains(t, out, "42 conditions for year 2023 exported to file '/tmp/opal.csv'")
	assert.Contains(t, out, "excludes reports with extern diagnosis (default)")
}

func TestComparisonReport_Text(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, plainPrinter(&buf, FormatText).Print(&ComparisonReport{Meta: testMeta(), Result: comparison()}))

	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines, "1 conditions from the database for year 2024 missing in file 'opal.csv'")
	assert.Contains(t, lines, "Condition-ID   Date         ICD10   PAT-ID")
	assert.Contains(t, lines, "c1             2024-01-01   C50.1   P1")
	assert.Contains(t, lines, "1 conditions from file 'opal.csv' missing in the database for year 2024")
	assert.Contains(t, lines, "c2             2024-02-01   Z99")
	assert.Contains(t, lines, "1 conditions with different ICD-10 code")
	assert.Contains(t, lines, "Condition-ID   Date         DB      CSV     PAT-ID   Matches")
	assert.Contains(t, lines, "c3             2024-03-01   C17.1   C18.0            2")
}

func TestExportCheckReport_Text(t *testing.T) {
	var buf bytes.Buffer
	result := &service.ProtocolComparison{
		DocumentFragments: 2,
		DatabaseFragments: 2,
		MissingInDocument: []service.Fragment{{ID: "TEST2", DatabaseKey: "2", ICD10Code: "C61", StorageKey: "102"}},
		MissingInDatabase: []service.Fragment{{ID: "TEST3", DatabaseKey: "3", ICD10Code: "C73"}},
		DuplicateStorageRows: []service.DuplicateRow{
			{Key: "104", Fragments: 2, IDs: []string{"TEST4", "TEST5"}},
		},
		ContentMismatches: []service.ContentMismatch{
			{
				Document: service.Fragment{ID: "TEST1", DatabaseKey: "1", ICD10Code: "C17.1"},
				Database: service.Fragment{ID: "TEST1", DatabaseKey: "1", ICD10Code: "C17.2", StorageKey: "101"},
			},
		},
		SkippedRows: []string{"105"},
	}
	meta := NewMeta("run-1", "check-export").WithFile("export.xml")

	err := plainPrinter(&buf, FormatText).Print(&ExportCheckReport{Meta: meta, Package: "7", Result: result})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Export package 7: 2 reports in file 'export.xml', 2 reports in the database")
	assert.Contains(t, out, "1 reports in the database but not in file 'export.xml'")
	assert.Contains(t, out, "TEST2        2        C61     102")
	assert.Contains(t, out, "1 reports in file 'export.xml' but not in the database")
	assert.Contains(t, out, "1 export rows with more than one report")
	assert.Contains(t, out, "104          2         TEST4, TEST5")
	assert.Contains(t, out, "1 reports with different content")
	assert.Contains(t, out, "TEST1        1        C17.1   C17.2   101")
	assert.Contains(t, out, "1 export rows without patient data skipped: 105")
	assert.NotContains(t, out, "Note:")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, plainPrinter(&buf, FormatJSON).Print(&ComparisonReport{Meta: testMeta(), Result: comparison()}))

	var decoded struct {
		Meta   Meta `json:"meta"`
		Result struct {
			OnlyInA        []domain.ConditionRecord `json:"only_in_a"`
			CodeMismatches []service.CodeMismatch   `json:"code_mismatches"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "run-1", decoded.Meta.RunID)
	assert.Equal(t, "compare", decoded.Meta.Command)
	assert.Equal(t, "2024", decoded.Meta.Year)
	require.NotNil(t, decoded.Meta.IncludeExtern)
	assert.False(t, *decoded.Meta.IncludeExtern)
	assert.Equal(t, "opal.csv", decoded.Meta.File)
	assert.False(t, decoded.Meta.GeneratedAt.IsZero())

	require.Len(t, decoded.Result.OnlyInA, 1)
	assert.Equal(t, "P1", decoded.Result.OnlyInA[0].PatientID)
	require.Len(t, decoded.Result.CodeMismatches, 1)
	assert.Equal(t, "C18.0", decoded.Result.CodeMismatches[0].Counterpart.ICD10Code)
	assert.Equal(t, 2, decoded.Result.CodeMismatches[0].Counterparts)
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	groups := []domain.Icd10GroupSize{{Name: "C61", Size: 3}, {Name: "Other", Size: 2}}

	require.NoError(t, plainPrinter(&buf, FormatYAML).Print(NewGroupReport(NewMeta("run-2", "database"), groups)))

	var decoded GroupReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "run-2", decoded.Meta.RunID)
	assert.Equal(t, groups, decoded.Groups)
	assert.Equal(t, 3, decoded.Relevant)
	assert.Equal(t, 5, decoded.Total)
	assert.Nil(t, decoded.Meta.IncludeExtern)
}

func TestPrinter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer

	err := plainPrinter(&buf, "xml").Print(&ExportReport{Meta: testMeta()})

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "report.format", validationErr.Field)
	assert.Empty(t, buf.String())
}

func TestPrinter_Progress(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{format: FormatText, expected: "Reading 3 rows\n"},
		{format: FormatJSON, expected: ""},
		{format: FormatYAML, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			plainPrinter(&buf, tt.format).Progress("Reading %d rows", 3)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestNewPrinter_DefaultsToText(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, domain.ReportConfig{}).Print(&ExportReport{Meta: testMeta(), Conditions: 1}))

	assert.Contains(t, buf.String(), "1 conditions for year 2024")
}
