package inventory

import (
	"reflect"
	"testing"

	"github.com/erazemk/zaloga/internal/model"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: 1, Name: "Milk", Status: model.StatusLow, Category: model.CategoryGroceries, Frequency: model.FrequencyDaily},
		{ID: 2, Name: "Soap", Status: model.StatusInStock, Category: model.CategoryPersonalCare, Frequency: model.FrequencyMonthly, Note: "lavender"},
		{ID: 3, Name: "Aspirin", Status: model.StatusOutOfStock, Category: model.CategoryMedicine, Frequency: model.FrequencyOccasional},
	}
}

func ids(items []model.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"default shows all", DefaultFilter(), []int64{1, 2, 3}},
		{"zero value shows all", Filter{}, []int64{1, 2, 3}},
		{"search is case-insensitive", Filter{Search: "milk", Status: All, Category: All, Frequency: All}, []int64{1}},
		{"search matches note", Filter{Search: "LAVEN"}, []int64{2}},
		{"status", Filter{Status: model.StatusLow, Category: All, Frequency: All}, []int64{1}},
		{"category", Filter{Category: model.CategoryMedicine}, []int64{3}},
		{"frequency", Filter{Frequency: model.FrequencyMonthly}, []int64{2}},
		{"predicates combine", Filter{Search: "a", Status: model.StatusOutOfStock}, []int64{3}},
		{"no match", Filter{Search: "bread"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Apply(sampleItems(), tt.filter)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyIsPure(t *testing.T) {
	items := sampleItems()
	before := sampleItems()
	f := Filter{Search: "o", Status: All}

	first := Apply(items, f)
	second := Apply(items, f)

	if !reflect.DeepEqual(first, second) {
		t.Error("applying the same filter twice gave different results")
	}
	if !reflect.DeepEqual(items, before) {
		t.Error("Apply modified its input")
	}
}
