package notation

import (
	"math/rand"
	"testing"

	"github.com/scoreforge/scoreforge/pkg/params"
)

// sixtyFourMeasures builds a part with one quarter note per measure.
func sixtyFourMeasures() *Part {
	part := &Part{}
	for i := 0; i < 64; i++ {
		part.Measures = append(part.Measures, &Measure{
			Notes: []*Note{{Name: "C", Key: 60, Duration: 1, Offset: float64(i)}},
		})
	}
	return part
}

func TestShapeSections(t *testing.T) {
	p := params.Default()
	p.Form = "Intro-Verse-Chorus-Outro"
	p.Measures = 64
	rnd := rand.New(rand.NewSource(1))

	part := sixtyFourMeasures()
	Shape(part, p, rnd)

	// section_len = 64/4 = 16 measures per section.
	bands := []struct {
		name     string
		from, to int
		lo, hi   int
	}{
		{"intro", 0, 15, 65, 85},
		{"verse", 16, 31, 60, 75},
		{"chorus", 32, 47, 80, 100},
		{"outro", 48, 63, 65, 85},
	}
	for _, band := range bands {
		for i := band.from; i <= band.to; i++ {
			v := part.Measures[i].Notes[0].Velocity
			if v < band.lo || v > band.hi {
				t.Fatalf("measure %d (%s): velocity %d outside [%d,%d]", i, band.name, v, band.lo, band.hi)
			}
		}
	}
}

func TestShapeLastSectionAbsorbsRemainder(t *testing.T) {
	p := params.Default()
	p.Form = "Verse-Chorus-Verse"
	p.Measures = 64
	rnd := rand.New(rand.NewSource(7))

	part := sixtyFourMeasures()
	Shape(part, p, rnd)

	// section_len = 64/3 = 21; measures 63 falls past 3*21 and uses the
	// last token's band.
	v := part.Measures[63].Notes[0].Velocity
	if v < 60 || v > 75 {
		t.Fatalf("remainder measure velocity %d outside verse band [60,75]", v)
	}
}

func TestVelocityBand(t *testing.T) {
	tests := []struct {
		section string
		lo, hi  int
	}{
		{"Verse", 60, 75},
		{"verse 2", 60, 75},
		{"Chorus", 80, 100},
		{"Hook", 80, 100},
		{"Bridge", 70, 85},
		{"pre-chorus", 70, 85},
		{"Intro", 65, 85},
		{"Outro", 65, 85},
		{"", 65, 85},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			lo, hi := velocityBand(tt.section)
			if lo != tt.lo || hi != tt.hi {
				t.Fatalf("velocityBand(%q) = [%d,%d]; want [%d,%d]", tt.section, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestShapeJitter(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(3))

	part := &Part{Measures: []*Measure{{Notes: []*Note{
		{Name: "C", Key: 60, Duration: 0.5, Offset: 0},
		{Name: "D", Key: 62, Duration: 0.5, Offset: 0.5},
		{Name: "E", Key: 64, Duration: 0.5, Offset: 1},
	}}}}
	Shape(part, p, rnd)

	notes := part.Notes()
	if notes[0].Offset != 0 {
		t.Errorf("first offset jittered: %f", notes[0].Offset)
	}
	if d := notes[1].Offset - 0.5; d < -jitter || d > jitter {
		t.Errorf("offset jitter %f outside ±%f", d, jitter)
	}
	if d := notes[2].Offset - 1; d < -jitter || d > jitter {
		t.Errorf("offset jitter %f outside ±%f", d, jitter)
	}
}

func TestShapeSkipsRests(t *testing.T) {
	p := params.Default()
	rnd := rand.New(rand.NewSource(5))

	part := &Part{Measures: []*Measure{{Notes: []*Note{
		{Rest: true, Duration: 1, Offset: 0},
		{Name: "C", Key: 60, Duration: 1, Offset: 1},
	}}}}
	Shape(part, p, rnd)

	if got := part.Notes()[0].Velocity; got != 0 {
		t.Errorf("rest velocity = %d; want 0", got)
	}
}
