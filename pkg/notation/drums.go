package notation

// percussionKeys maps pitch letters of a generated drum part to standard
// percussion key numbers: kick, snare, closed/open hi-hat, crash, ride and
// the crash-2 position. Rests stay silent on their own.
var percussionKeys = map[string]int{
	"C": 36,
	"D": 38,
	"E": 42,
	"F": 46,
	"G": 49,
	"A": 51,
	"B": 53,
}

// fallbackPercussionKey catches any other pitch, including accidentaled
// letters the table doesn't cover.
const fallbackPercussionKey = 35

// RemapPercussion rewrites every note of a percussion part to a fixed
// percussion key, leaving durations, offsets and measure structure intact.
// It is total and idempotent over its own output letters.
func RemapPercussion(part *Part) *Part {
	for _, n := range part.Notes() {
		if n.Rest {
			continue
		}
		key, ok := percussionKeys[n.Name]
		if !ok {
			key = fallbackPercussionKey
		}
		n.Key = key
	}
	return part
}
