package schedule

import "testing"

func TestResolveColumnsDefaults(t *testing.T) {
	t.Parallel()
	cols := ResolveColumns([]string{"c1", "c2"}, nil)
	for f := Field(0); f < numFields; f++ {
		if cols[f] != int(f) {
			t.Errorf("%s = %d, want positional default %d", f.Key(), cols[f], int(f))
		}
	}
}

func TestResolveColumnsByLabel(t *testing.T) {
	t.Parallel()
	labels := map[string]string{
		"area":      "Area",
		"product":   "Product",
		"next_due":  "Next Due",
		"frequency": "Frequency (days)",
	}
	// Header reordered relative to the defaults, with stray spacing.
	header := []string{"Product", " Area ", "Next Due", "", "Frequency (days)"}

	cols := ResolveColumns(header, labels)
	if cols[FieldArea] != 1 {
		t.Errorf("area = %d, want 1", cols[FieldArea])
	}
	if cols[FieldProduct] != 0 {
		t.Errorf("product = %d, want 0", cols[FieldProduct])
	}
	if cols[FieldNextDue] != 2 {
		t.Errorf("next_due = %d, want 2", cols[FieldNextDue])
	}
	if cols[FieldFrequency] != 4 {
		t.Errorf("frequency = %d, want 4", cols[FieldFrequency])
	}
	// Unconfigured fields keep their positions.
	if cols[FieldLine] != int(FieldLine) {
		t.Errorf("line = %d, want default %d", cols[FieldLine], int(FieldLine))
	}
}

func TestResolveColumnsMissingLabel(t *testing.T) {
	t.Parallel()
	labels := map[string]string{"sample_id": "Sample ID"}
	cols := ResolveColumns([]string{"Zone", "Item"}, labels)
	if cols[FieldSampleID] != int(FieldSampleID) {
		t.Errorf("sample_id = %d, want default %d", cols[FieldSampleID], int(FieldSampleID))
	}
}
