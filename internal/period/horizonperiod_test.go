package period

import "testing"

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b HorizonPeriod
		want HorizonPeriod
	}{
		{"identical", HorizonPeriod{2, 3}, HorizonPeriod{2, 3}, HorizonPeriod{2, 3}},
		{"default with periodic", HorizonPeriod{0, 1}, HorizonPeriod{1, 4}, HorizonPeriod{1, 4}},
		{"coprime periods", HorizonPeriod{0, 2}, HorizonPeriod{0, 3}, HorizonPeriod{0, 6}},
		{"shared factor", HorizonPeriod{1, 4}, HorizonPeriod{3, 6}, HorizonPeriod{3, 12}},
		{"longer horizon wins", HorizonPeriod{5, 2}, HorizonPeriod{1, 2}, HorizonPeriod{5, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.a, tt.b)
			if err != nil {
				t.Fatalf("merge failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Merge(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if !tt.a.Contains(got) || !tt.b.Contains(got) {
				t.Errorf("merged grid %v not reachable from both inputs", got)
			}
		})
	}
}

func TestMergeInvalid(t *testing.T) {
	tests := []struct {
		name string
		hp   HorizonPeriod
	}{
		{"negative horizon", HorizonPeriod{-1, 2}},
		{"zero period", HorizonPeriod{0, 0}},
		{"negative period", HorizonPeriod{1, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Merge(Default(), tt.hp); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestMergeEmpty(t *testing.T) {
	got, err := Merge()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got != Default() {
		t.Errorf("Merge() = %v, want %v", got, Default())
	}
}

func TestContains(t *testing.T) {
	base := HorizonPeriod{2, 3}

	if !base.Contains(HorizonPeriod{2, 3}) {
		t.Error("grid should contain itself")
	}
	if !base.Contains(HorizonPeriod{4, 6}) {
		t.Error("longer horizon with multiple period should be contained")
	}
	if base.Contains(HorizonPeriod{1, 3}) {
		t.Error("shorter horizon must not be contained")
	}
	if base.Contains(HorizonPeriod{2, 4}) {
		t.Error("non-multiple period must not be contained")
	}
}
