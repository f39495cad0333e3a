package scheduling

import "testing"

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{Start: 600, End: 630}
	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", Interval{600, 630}, true},
		{"inside", Interval{610, 620}, true},
		{"straddles start", Interval{590, 605}, true},
		{"touches end", Interval{630, 660}, false},
		{"touches start", Interval{570, 600}, false},
		{"disjoint", Interval{700, 730}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%v) = %v, want %v", tt.other, got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("overlap must be symmetric for %v", tt.other)
			}
		})
	}
}

func TestInterval_Within(t *testing.T) {
	work := Interval{Start: 9 * 60, End: 17 * 60}
	if !(Interval{9 * 60, 9*60 + 30}).Within(work) {
		t.Error("slot at opening time must fit")
	}
	if !(Interval{16*60 + 30, 17 * 60}).Within(work) {
		t.Error("slot ending at closing time must fit")
	}
	if (Interval{16*60 + 45, 17*60 + 15}).Within(work) {
		t.Error("slot running past closing must not fit")
	}
	if (Interval{8*60 + 45, 9*60 + 15}).Within(work) {
		t.Error("slot starting before opening must not fit")
	}
}

func TestNewInterval(t *testing.T) {
	iv, err := NewInterval("10:15", 45)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Start != 615 || iv.End != 660 {
		t.Errorf("unexpected interval %+v", iv)
	}
	if _, err := NewInterval("25:00", 30); err == nil {
		t.Error("expected error for invalid clock")
	}
}

func TestSlotGrid(t *testing.T) {
	work := Interval{Start: 9 * 60, End: 11 * 60}
	busy := []Interval{{Start: 9*60 + 30, End: 10 * 60}}

	slots := SlotGrid(work, 30, busy)
	want := []Slot{
		{"09:00", true},
		{"09:30", false},
		{"10:00", true},
		{"10:30", true},
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %+v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], want[i])
		}
	}
}

func TestSlotGrid_LongDuration(t *testing.T) {
	work := Interval{Start: 9 * 60, End: 11 * 60}
	slots := SlotGrid(work, 60, []Interval{{Start: 10*60 + 30, End: 11 * 60}})
	// 09:30 ends exactly when the busy block starts; 10:00 overlaps it and
	// 10:30 runs past close.
	want := []bool{true, true, false, false}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %+v", len(want), len(slots), slots)
	}
	for i, s := range slots {
		if s.Available != want[i] {
			t.Errorf("slot %s available = %v, want %v", s.Time, s.Available, want[i])
		}
	}
}
