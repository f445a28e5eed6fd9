package planner

import "hash/fnv"

// disclaimerRate is the 1-in-N chance a post carries a disclaimer line.
const disclaimerRate = 5

// ShouldIncludeDisclaimer decides whether a post gets a disclaimer. The
// decision is a pure function of (UTC day, fingerprint): the same item on the
// same day always answers the same, which keeps rendering reproducible
// without a random source. Across many fingerprints the positive rate is
// about 1 in 5.
func ShouldIncludeDisclaimer(day, fingerprint string) bool {
	h := fnv.New32a()
	h.Write([]byte(day))
	h.Write([]byte{'|'})
	h.Write([]byte(fingerprint))
	return h.Sum32()%disclaimerRate == 0
}

// PickDisclaimer selects one of the configured lines, again deterministically
// from (day, fingerprint) so repeated renders match.
func PickDisclaimer(lines []string, day, fingerprint string) string {
	if len(lines) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(fingerprint))
	h.Write([]byte{'|'})
	h.Write([]byte(day))
	return lines[int(h.Sum32())%len(lines)]
}
