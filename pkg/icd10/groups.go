// Package icd10 maps ICD-10 diagnosis codes to the tumour groups used in the
// registry's plausibility report.
package icd10

import (
	"sort"
	"strings"

	"github.com/rwdp-check/internal/domain"
)

// Other is the group of every code that is not listed in the group table.
const Other = "Other"

// Group is one label of the classification table and the category codes it covers.
type Group struct {
	Name  string
	Codes []string
}

// singletons are compared verbatim instead of being reduced to their category.
var singletons = map[string]bool{
	"D39.1": true,
	"D09.0": true,
	"D41.4": true,
}

var groups = []Group{
	{Name: "C00-C14", Codes: []string{"C00", "C01", "C02", "C03", "C04", "C05", "C06", "C07", "C08", "C09", "C10", "C11", "C12", "C13", "C14"}},
	{Name: "C15", Codes: []string{"C15"}},
	{Name: "C16", Codes: []string{"C16"}},
	{Name: "C18-C21", Codes: []string{"C18", "C19", "C20", "C21"}},
	{Name: "C22", Codes: []string{"C22"}},
	{Name: "C23-C24", Codes: []string{"C23", "C24"}},
	{Name: "C25", Codes: []string{"C25"}},
	{Name: "C32", Codes: []string{"C32"}},
	{Name: "C33-C34", Codes: []string{"C33", "C34"}},
	{Name: "C43", Codes: []string{"C43"}},
	{Name: "C50, D05", Codes: []string{"C50", "D05"}},
	{Name: "C53, D06", Codes: []string{"C53", "D06"}},
	{Name: "C54-C55", Codes: []string{"C54", "C55"}},
	{Name: "C56, D39.1", Codes: []string{"C56", "D39.1"}},
	{Name: "C61", Codes: []string{"C61"}},
	{Name: "C62", Codes: []string{"C62"}},
	{Name: "C64", Codes: []string{"C64"}},
	{Name: "C67, D09.0, D41.4", Codes: []string{"C67", "D09.0", "D41.4"}},
	{Name: "C70-C72", Codes: []string{"C70", "C71", "C72"}},
	{Name: "C73", Codes: []string{"C73"}},
	{Name: "C81", Codes: []string{"C81"}},
	{Name: "C82-C88, C96", Codes: []string{"C82", "C83", "C84", "C85", "C86", "C87", "C88", "C96"}},
	{Name: "C90", Codes: []string{"C90"}},
	{Name: "C91-C95", Codes: []string{"C91", "C92", "C93", "C94", "C95"}},
}

var groupByCode = compile(groups)

func compile(table []Group) map[string]string {
	index := make(map[string]string)
	for _, g := range table {
		for _, code := range g.Codes {
			if _, exists := index[code]; exists {
				continue
			}
			index[code] = g.Name
		}
	}
	return index
}

// Groups returns a copy of the classification table in report order.
func Groups() []Group {
	result := make([]Group, len(groups))
	for i, g := range groups {
		result[i] = Group{Name: g.Name, Codes: append([]string(nil), g.Codes...)}
	}
	return result
}

// Classify returns the group name for a diagnosis code, or Other.
func Classify(code string) string {
	if name, ok := groupByCode[reduce(code)]; ok {
		return name
	}
	return Other
}

// IsRelevant reports whether code belongs to one of the tracked groups.
func IsRelevant(code string) bool {
	return Classify(code) != Other
}

func reduce(code string) string {
	if singletons[code] {
		return code
	}
	category, _, _ := strings.Cut(code, ".")
	return category
}

// GroupAndCount classifies every record and counts the records per group and
// schema version. The result is ordered by group name, then schema version.
func GroupAndCount(records []domain.ConditionRecord) []domain.Icd10GroupSize {
	type key struct {
		name    string
		version string
	}

	counts := make(map[key]int)
	for _, record := range records {
		counts[key{name: Classify(record.ICD10Code), version: record.SchemaVersion}]++
	}

	result := make([]domain.Icd10GroupSize, 0, len(counts))
	for k, count := range counts {
		result = append(result, domain.Icd10GroupSize{
			Name:          k.name,
			SchemaVersion: k.version,
			Size:          count,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].SchemaVersion < result[j].SchemaVersion
	})

	return result
}

// Totals returns the number of records in tracked groups and the number of all records.
func Totals(sizes []domain.Icd10GroupSize) (relevant, total int) {
	for _, size := range sizes {
		total += size.Size
		if size.Name != Other {
			relevant += size.Size
		}
	}
	return relevant, total
}
