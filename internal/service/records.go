package service

import (
	"sort"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/pkg/icd10"
)

// MatchPolicy selects the counterpart reported for a code mismatch when
// several records of the other source share the condition id.
type MatchPolicy int

const (
	// FirstMatch reports the first counterpart in input order
	FirstMatch MatchPolicy = iota
	// LastMatch reports the last counterpart in input order
	LastMatch
)

// String returns the policy name
func (p MatchPolicy) String() string {
	if p == LastMatch {
		return "last"
	}
	return "first"
}

// CodeMismatch is a record of source A whose condition id exists in source B,
// but no record of B carries the same ICD-10 code.
type CodeMismatch struct {
	Record       domain.ConditionRecord `json:"record" yaml:"record"`
	Counterpart  domain.ConditionRecord `json:"counterpart" yaml:"counterpart"`
	Counterparts int                    `json:"counterparts" yaml:"counterparts"`
}

// Relevant reports whether either code belongs to a tracked ICD-10 group
func (m CodeMismatch) Relevant() bool {
	return icd10.IsRelevant(m.Record.ICD10Code) || icd10.IsRelevant(m.Counterpart.ICD10Code)
}

// Ambiguous reports whether more than one counterpart shares the condition id
func (m CodeMismatch) Ambiguous() bool {
	return m.Counterparts > 1
}

// RecordComparison is the result of a two-way record reconciliation.
// All lists are ordered by condition id.
type RecordComparison struct {
	OnlyInA        []domain.ConditionRecord `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB        []domain.ConditionRecord `json:"only_in_b" yaml:"only_in_b"`
	CodeMismatches []CodeMismatch           `json:"code_mismatches" yaml:"code_mismatches"`
}

// Consistent reports whether no differences were found
func (c *RecordComparison) Consistent() bool {
	return len(c.OnlyInA) == 0 && len(c.OnlyInB) == 0 && len(c.CodeMismatches) == 0
}

// ReconcileRecords compares two collections of conditions by condition id.
// Duplicate ids are not merged: every record of A is checked on its own.
func ReconcileRecords(a, b []domain.ConditionRecord, policy MatchPolicy) *RecordComparison {
	inA := make(map[string]bool, len(a))
	for _, r := range a {
		inA[r.ConditionID] = true
	}

	byID := make(map[string][]domain.ConditionRecord, len(b))
	pairs := make(map[codePair]bool, len(b))
	for _, r := range b {
		byID[r.ConditionID] = append(byID[r.ConditionID], r)
		pairs[codePair{r.ConditionID, r.ICD10Code}] = true
	}

	result := &RecordComparison{
		OnlyInA:        make([]domain.ConditionRecord, 0),
		OnlyInB:        make([]domain.ConditionRecord, 0),
		CodeMismatches: make([]CodeMismatch, 0),
	}

	for _, r := range a {
		counterparts := byID[r.ConditionID]
		if len(counterparts) == 0 {
			result.OnlyInA = append(result.OnlyInA, r)
			continue
		}
		if pairs[codePair{r.ConditionID, r.ICD10Code}] {
			continue
		}

		counterpart := counterparts[0]
		if policy == LastMatch {
			counterpart = counterparts[len(counterparts)-1]
		}
		result.CodeMismatches = append(result.CodeMismatches, CodeMismatch{
			Record:       r,
			Counterpart:  counterpart,
			Counterparts: len(counterparts),
		})
	}

	for _, r := range b {
		if !inA[r.ConditionID] {
			result.OnlyInB = append(result.OnlyInB, r)
		}
	}

	sortRecords(result.OnlyInA)
	sortRecords(result.OnlyInB)
	sort.SliceStable(result.CodeMismatches, func(i, j int) bool {
		return result.CodeMismatches[i].Record.ConditionID < result.CodeMismatches[j].Record.ConditionID
	})

	return result
}

type codePair struct {
	conditionID string
	code        string
}

func sortRecords(records []domain.ConditionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ConditionID < records[j].ConditionID
	})
}
