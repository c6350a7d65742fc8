package auditchecklist

import "testing"

func TestCatalog_MeetsSpecMinimums(t *testing.T) {
	items := Catalog()
	if len(items) < 50 {
		t.Errorf("Catalog() has %d items, want >= 50", len(items))
	}

	categories := make(map[Category]bool)
	ids := make(map[string]bool)
	for _, item := range items {
		if ids[item.ID] {
			t.Errorf("duplicate catalog item ID %q", item.ID)
		}
		ids[item.ID] = true
		categories[item.Category] = true
	}
	if len(categories) < 10 {
		t.Errorf("Catalog() spans %d categories, want >= 10", len(categories))
	}
}

func TestCatalog_AutomaticItemsMatchDetectors(t *testing.T) {
	automatic := make(map[string]bool)
	for _, item := range Catalog() {
		if item.Detection == DetectionAutomatic {
			automatic[item.ID] = true
		}
	}

	if len(detectors) != len(automatic) {
		t.Fatalf("catalog declares %d DetectionAutomatic items but %d detectors are wired", len(automatic), len(detectors))
	}
	for itemID := range detectors {
		if !automatic[itemID] {
			t.Errorf("detector wired for %q, which is not a DetectionAutomatic catalog item", itemID)
		}
	}
}
