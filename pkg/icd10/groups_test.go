package icd10

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwdp-check/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "C16", want: "C16"},
		{code: "C16.9", want: "C16"},
		{code: "C00.1", want: "C00-C14"},
		{code: "C14.8", want: "C00-C14"},
		{code: "C20", want: "C18-C21"},
		{code: "C50.4", want: "C50, D05"},
		{code: "D05.1", want: "C50, D05"},
		{code: "D06.9", want: "C53, D06"},
		{code: "D39.1", want: "C56, D39.1"},
		{code: "D39.0", want: Other},
		{code: "D09.0", want: "C67, D09.0, D41.4"},
		{code: "D41.4", want: "C67, D09.0, D41.4"},
		{code: "D41.1", want: Other},
		{code: "C96.2", want: "C82-C88, C96"},
		{code: "C95.0", want: "C91-C95"},
		{code: "C17.1", want: Other},
		{code: "Z99", want: Other},
		{code: "", want: Other},
		{code: "c16.9", want: Other},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code))
			assert.Equal(t, tt.want != Other, IsRelevant(tt.code))
		})
	}
}

func TestClassify_TableIsConsistent(t *testing.T) {
	seen := make(map[string]string)
	for _, g := range Groups() {
		assert.NotEmpty(t, g.Codes, "group %s has no codes", g.Name)
		for _, code := range g.Codes {
			if previous, ok := seen[code]; ok {
				t.Errorf("code %s listed in %s and %s", code, previous, g.Name)
			}
			seen[code] = g.Name
			assert.Equal(t, g.Name, Classify(code))
		}
	}
}

func TestGroups_ReturnsCopy(t *testing.T) {
	g := Groups()
	g[0].Codes[0] = "X00"

	assert.Equal(t, "C00-C14", Classify("C00"))
}

func TestGroupAndCount(t *testing.T) {
	records := []domain.ConditionRecord{
		{ConditionID: "1", ICD10Code: "C16.9", SchemaVersion: "2.2.3"},
		{ConditionID: "2", ICD10Code: "C16.1", SchemaVersion: "2.2.3"},
		{ConditionID: "3", ICD10Code: "C16.1", SchemaVersion: "2.2.1"},
		{ConditionID: "4", ICD10Code: "D39.1"},
		{ConditionID: "5", ICD10Code: "Z99"},
		{ConditionID: "5", ICD10Code: "C17"},
	}

	got := GroupAndCount(records)

	assert.Equal(t, []domain.Icd10GroupSize{
		{Name: "C16", SchemaVersion: "2.2.1", Size: 1},
		{Name: "C16", SchemaVersion: "2.2.3", Size: 2},
		{Name: "C56, D39.1", Size: 1},
		{Name: Other, Size: 2},
	}, got)

	relevant, total := Totals(got)
	assert.Equal(t, 4, relevant)
	assert.Equal(t, 6, total)
}

func TestGroupAndCount_Empty(t *testing.T) {
	got := GroupAndCount(nil)

	assert.Empty(t, got)
	relevant, total := Totals(got)
	assert.Zero(t, relevant)
	assert.Zero(t, total)
}
