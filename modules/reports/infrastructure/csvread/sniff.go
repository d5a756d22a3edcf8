package csvread

import "strings"

// Delimiters the portal's exports have been seen using, in fallback order.
var candidateDelimiters = []rune{';', ',', '|', '\t'}

const sniffSampleBytes = 8192

// sniffDelimiter inspects the first sniffSampleBytes of decoded content and
// picks the candidate whose per-line occurrence count is non-zero and
// consistent across the sampled lines. ok=false when no candidate qualifies.
func sniffDelimiter(content string) (rune, bool) {
	if len(content) > sniffSampleBytes {
		content = content[:sniffSampleBytes]
	}
	lines := sampleLines(content, 10)
	if len(lines) == 0 {
		return 0, false
	}

	bestDelim := rune(0)
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := strings.Count(lines[0], string(d))
		if count == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(d)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			bestDelim = d
			bestCount = count
		}
	}
	if bestCount == 0 {
		return 0, false
	}
	return bestDelim, true
}

// inferDelimiter is the permissive fallback: whichever candidate occurs most
// in the first non-empty line, comma when none do.
func inferDelimiter(content string) rune {
	lines := sampleLines(content, 1)
	if len(lines) == 0 {
		return ','
	}
	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if count := strings.Count(lines[0], string(d)); count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

func sampleLines(content string, max int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}
