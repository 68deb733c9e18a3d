package domain

import (
	"errors"
	"testing"
)

func TestConditionRecord_HasPatientID(t *testing.T) {
	tests := []struct {
		name     string
		record   ConditionRecord
		expected bool
	}{
		{"With patient id", ConditionRecord{PatientID: "4711", ConditionID: "c1"}, true},
		{"Without patient id", ConditionRecord{ConditionID: "c1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.HasPatientID(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestQueryFilter_Validate(t *testing.T) {
	tests := []struct {
		name      string
		filter    QueryFilter
		wantErr   bool
		wantYear  bool
		wantField string
	}{
		{
			name:   "Valid filter",
			filter: QueryFilter{Year: "2023", IgnoreExportsSince: "9999-12-31"},
		},
		{
			name:      "Missing year",
			filter:    QueryFilter{IgnoreExportsSince: "9999-12-31"},
			wantErr:   true,
			wantYear:  true,
			wantField: "year",
		},
		{
			name:      "Five digit year",
			filter:    QueryFilter{Year: "20234", IgnoreExportsSince: "9999-12-31"},
			wantErr:   true,
			wantYear:  true,
			wantField: "year",
		},
		{
			name:      "German date",
			filter:    QueryFilter{Year: "2023", IgnoreExportsSince: "31.12.2023"},
			wantErr:   true,
			wantField: "ignore_exports_since",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}

			if errors.Is(err, ErrInvalidYear) != tt.wantYear {
				t.Errorf("Expected errors.Is(err, ErrInvalidYear) == %v for %v", tt.wantYear, err)
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, validationErr.Field)
			}
		})
	}
}

func TestQueryConfig_Filter(t *testing.T) {
	config := QueryConfig{
		Year:               "2024",
		IgnoreExportsSince: "2024-06-01",
		IncludeExtern:      true,
		WithPatientID:      true,
		ConditionIDSystem:  "https://example.org/sid/condition-id",
	}

	expected := QueryFilter{
		Year:               "2024",
		IgnoreExportsSince: "2024-06-01",
		IncludeExtern:      true,
		WithPatientID:      true,
	}
	if got := config.Filter(); got != expected {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}
