package notation

import (
	"math/rand"
	"strings"

	"github.com/scoreforge/scoreforge/pkg/params"
)

// jitter is the maximum timing perturbation in quarter notes.
const jitter = 0.02

// Shape applies section-dependent velocities and micro-timing to a part.
//
// The form string is split into section tokens; each section spans
// total_measures / token_count measures, the last token absorbing any
// remainder. Every note gets a uniformly random velocity inside its
// section's band, and every note past the start of the part gets its offset
// perturbed by up to ±0.02 quarter notes.
func Shape(part *Part, p params.Parameters, rnd *rand.Rand) {
	sections := p.Sections()
	if len(sections) == 0 {
		sections = []string{""}
	}
	sectionLen := p.Measures / len(sections)
	if sectionLen < 1 {
		sectionLen = 1
	}
	for i, m := range part.Measures {
		idx := i / sectionLen
		if idx >= len(sections) {
			idx = len(sections) - 1
		}
		lo, hi := velocityBand(sections[idx])
		for _, n := range m.Notes {
			if n.Rest {
				continue
			}
			n.Velocity = lo + rnd.Intn(hi-lo+1)
			if n.Offset > 0 {
				n.Offset += rnd.Float64()*2*jitter - jitter
				if n.Offset < 0 {
					n.Offset = 0
				}
			}
		}
	}
}

// velocityBand classifies a section name into its velocity range.
func velocityBand(section string) (lo, hi int) {
	s := strings.ToLower(section)
	switch {
	case strings.Contains(s, "verse"):
		return 60, 75
	case strings.Contains(s, "bridge"), strings.Contains(s, "pre-chorus"):
		return 70, 85
	case strings.Contains(s, "chorus"), strings.Contains(s, "hook"):
		return 80, 100
	default:
		return 65, 85
	}
}
