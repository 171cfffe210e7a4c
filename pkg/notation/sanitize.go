package notation

import "strings"

var headerPrefixes = []string{"M:", "L:", "K:", "X:", "T:", "V:", "%%"}

// Sanitize normalizes raw generated ABC text into a form the parser accepts.
// It is total: unrecognized lines pass through unchanged.
//
// In order: section-tag lines ("[V:...]") collapse to a single "V:1" voice,
// the alternate flat marker "_" becomes "b", every non-header line holding a
// bar delimiter is bounded by bar delimiters, and repeat shorthand (":|",
// "|:") collapses to a bare bar so no shorthand survives downstream.
func Sanitize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[V:") {
			lines[i] = "V:1"
		}
	}
	text = strings.Join(lines, "\n")

	text = strings.ReplaceAll(text, "_", "b")

	var out []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if isHeader(line) {
			out = append(out, line)
			continue
		}
		if strings.Contains(line, "|") {
			if !strings.HasPrefix(line, "|") {
				line = "|" + line
			}
			if !strings.HasSuffix(line, "|") {
				line = line + "|"
			}
		}
		out = append(out, line)
	}
	text = strings.Join(out, "\n")

	text = strings.ReplaceAll(text, ":|", "|")
	text = strings.ReplaceAll(text, "|:", "|")
	return text
}

func isHeader(line string) bool {
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
