package model

import "testing"

func ptr[T any](v T) *T { return &v }

func TestDraftNormalizeDefaults(t *testing.T) {
	d := Draft{Name: "  Milk ", NeedBy: ptr(" ")}
	d.Normalize()

	if d.Name != "Milk" {
		t.Errorf("expected trimmed name, got %q", d.Name)
	}
	if d.Category != CategoryOther || d.Status != StatusInStock || d.Frequency != FrequencyOccasional {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.NeedBy != nil {
		t.Error("expected blank needBy to be dropped")
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{"valid", Draft{Name: "Milk", Category: CategoryGroceries, Status: StatusLow, Frequency: FrequencyDaily}, ""},
		{"missing name", Draft{Category: CategoryOther, Status: StatusLow, Frequency: FrequencyDaily}, "name"},
		{"bad category", Draft{Name: "x", Category: "toys", Status: StatusLow, Frequency: FrequencyDaily}, "category"},
		{"bad status", Draft{Name: "x", Category: CategoryOther, Status: "gone", Frequency: FrequencyDaily}, "status"},
		{"bad frequency", Draft{Name: "x", Category: CategoryOther, Status: StatusLow, Frequency: "yearly"}, "frequency"},
		{"negative price", Draft{Name: "x", Category: CategoryOther, Status: StatusLow, Frequency: FrequencyDaily, Price: ptr(-1.0)}, "price"},
		{"bad date", Draft{Name: "x", Category: CategoryOther, Status: StatusLow, Frequency: FrequencyDaily, NeedBy: ptr("tomorrow")}, "needBy"},
	}

	for _, tt := range tests {
		errs := tt.draft.Validate()
		if tt.field == "" {
			if !errs.Empty() {
				t.Errorf("%s: expected no errors, got %v", tt.name, errs)
			}
			continue
		}
		if len(errs[tt.field]) == 0 {
			t.Errorf("%s: expected error on %q, got %v", tt.name, tt.field, errs)
		}
	}
}

func TestPatchApplyAndReplace(t *testing.T) {
	base := Draft{Name: "Soap", Category: CategoryPersonalCare, Status: StatusInStock, Frequency: FrequencyMonthly, Note: "lavender"}
	p := ItemPatch{Status: ptr(StatusLow)}

	merged := p.Apply(base)
	if merged.Status != StatusLow || merged.Note != "lavender" || merged.Name != "Soap" {
		t.Errorf("Apply should only change status: %+v", merged)
	}

	replaced := p.Replace()
	if replaced.Status != StatusLow || replaced.Name != "" || replaced.Note != "" {
		t.Errorf("Replace should clear missing fields: %+v", replaced)
	}
}
