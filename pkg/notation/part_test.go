package notation

import (
	"math/rand"
	"testing"

	"github.com/scoreforge/scoreforge/pkg/params"
)

func TestStripAnnotations(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Cmaj7"A2 B2|`, "A2 B2|"},
		{`A2 "G"B2 "Am"c2|`, "A2 B2 c2|"},
		{"A2 B2|", "A2 B2|"},
		{`"all annotation"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := stripAnnotations(tt.in)
			if got != tt.want {
				t.Fatalf("stripAnnotations(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(1))

	part, err := Build("|C D E F|G A B c|", "Piano", 2, p, rnd)
	if err != nil {
		t.Fatalf("Build() err = %v; want nil", err)
	}
	if part.ID != "Piano" {
		t.Errorf("part.ID = %q; want %q", part.ID, "Piano")
	}
	if part.Channel != 2 {
		t.Errorf("part.Channel = %d; want 2", part.Channel)
	}
	if got := part.NumNotes(); got != 8 {
		t.Fatalf("part.NumNotes() = %d; want 8", got)
	}
	if got := len(part.Measures); got != 2 {
		t.Fatalf("len(part.Measures) = %d; want 2", got)
	}
	last := -1.0
	for _, n := range part.Notes() {
		if n.Velocity < 65 || n.Velocity > 85 {
			t.Errorf("velocity %d outside [65,85]", n.Velocity)
		}
		if n.Offset <= last {
			t.Errorf("offsets not increasing: %f after %f", n.Offset, last)
		}
		last = n.Offset
	}
}

func TestBuildDiscardsInputHeaders(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(1))

	// The generated headers disagree with the global parameters; the
	// parameters must win.
	in := "X:3\nM:3/4\nL:1/4\nK:Gm\n|C D E F|"
	part, err := Build(in, "Piano", 2, p, rnd)
	if err != nil {
		t.Fatalf("Build() err = %v; want nil", err)
	}
	if got := part.NumNotes(); got != 4 {
		t.Fatalf("part.NumNotes() = %d; want 4", got)
	}
	// L:1/8 from the canonical headers: each plain note is half a quarter.
	for _, n := range part.Notes() {
		if n.Duration != 0.5 {
			t.Fatalf("note duration = %f; want 0.5 (canonical unit length)", n.Duration)
		}
	}
}

func TestBuildStripsAnnotations(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(1))

	part, err := Build("|\"Cmaj7\"A2 B2|", "Piano", 2, p, rnd)
	if err != nil {
		t.Fatalf("Build() err = %v; want nil", err)
	}
	if got := part.NumNotes(); got != 2 {
		t.Fatalf("part.NumNotes() = %d; want 2", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"no bar lines", "stray prose without bars"},
		{"only rests are still playable", "|z z z z|"},
	}
	for _, tt := range tests[:2] {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.in, "Piano", 2, p, rnd); err == nil {
				t.Fatalf("Build(%q) err = nil; want error", tt.in)
			}
		})
	}
	t.Run(tests[2].name, func(t *testing.T) {
		part, err := Build(tests[2].in, "Piano", 2, p, rnd)
		if err != nil {
			t.Fatalf("Build() err = %v; want nil", err)
		}
		for _, n := range part.Notes() {
			if !n.Rest {
				t.Errorf("expected only rests, got note %v", n)
			}
		}
	})
}

func TestBuildDrums(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(1))

	part, err := Build("|C C z D|", "DrumSet", 10, p, rnd)
	if err != nil {
		t.Fatalf("Build() err = %v; want nil", err)
	}
	if part.Channel != 10 {
		t.Errorf("part.Channel = %d; want 10", part.Channel)
	}
	for _, n := range part.Notes() {
		if n.Rest {
			continue
		}
		if n.Key != 36 && n.Key != 38 {
			t.Errorf("drum key = %d; want 36 or 38", n.Key)
		}
	}
}
