package notation

import "testing"

func TestRemapPercussion(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"C", 36},
		{"D", 38},
		{"E", 42},
		{"F", 46},
		{"G", 49},
		{"A", 51},
		{"B", 53},
		{"C#", 35},
		{"Bb", 35},
		{"X", 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := &Part{
				Measures: []*Measure{
					{Notes: []*Note{{Name: tt.name, Key: 60, Duration: 1}}},
				},
			}
			part = RemapPercussion(part)
			if got := part.Measures[0].Notes[0].Key; got != tt.want {
				t.Fatalf("RemapPercussion(%q) key = %d; want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestRemapPercussionKeepsStructure(t *testing.T) {
	part := &Part{
		Measures: []*Measure{
			{Notes: []*Note{
				{Name: "C", Key: 60, Duration: 0.5, Offset: 0},
				{Rest: true, Duration: 0.5, Offset: 0.5},
				{Name: "D", Key: 62, Duration: 1, Offset: 1},
			}},
		},
	}
	part = RemapPercussion(part)
	if got := part.NumNotes(); got != 3 {
		t.Fatalf("NumNotes() = %d; want 3", got)
	}
	rest := part.Measures[0].Notes[1]
	if !rest.Rest {
		t.Errorf("rest lost its rest flag")
	}
	n := part.Measures[0].Notes[2]
	if n.Duration != 1 || n.Offset != 1 {
		t.Errorf("duration/offset changed: %f/%f", n.Duration, n.Offset)
	}
}

func TestRemapPercussionKeyDomain(t *testing.T) {
	valid := map[int]bool{36: true, 38: true, 42: true, 46: true, 49: true, 51: true, 53: true, 35: true}
	letters := []string{"C", "D", "E", "F", "G", "A", "B", "H", "Q", "F#"}
	for _, letter := range letters {
		part := &Part{Measures: []*Measure{{Notes: []*Note{{Name: letter, Key: 1}}}}}
		RemapPercussion(part)
		if got := part.Measures[0].Notes[0].Key; !valid[got] {
			t.Fatalf("RemapPercussion(%q) produced key %d outside the fixed table", letter, got)
		}
	}
}
