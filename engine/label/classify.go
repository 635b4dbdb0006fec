// Package label turns raw schematic label text into canonical circuit
// identifiers. A circuit id is one system letter, a circuit number, and a
// segment letter, with optional single dashes between the groups: "L1A",
// "P12B", "G-3-A".
package label

import (
	"regexp"
	"strings"
)

var circuitIDRe = regexp.MustCompile(`^[A-Z]-?\d+-?[A-Z]$`)

// Match reports whether text is a well-formed circuit id. The id is returned
// untouched; callers that need the dashed and dashless forms unified should
// go through CircuitKey.
func Match(text string) (string, bool) {
	if circuitIDRe.MatchString(text) {
		return text, true
	}
	return "", false
}

// Classification is the split of one wire's labels into a circuit id,
// surplus circuit ids, and free-text notes.
type Classification struct {
	CircuitID string   // first grammar match, "" when none
	Extra     []string // later grammar matches, encounter order
	Notes     []string // non-matching labels, encounter order
}

// Classify splits label texts in input order. Pure and deterministic: the
// first grammar match becomes the circuit id, later matches signal ambiguity,
// everything else is a note.
func Classify(texts []string) Classification {
	var c Classification
	for _, t := range texts {
		id, ok := Match(t)
		if !ok {
			c.Notes = append(c.Notes, t)
			continue
		}
		if c.CircuitID == "" {
			c.CircuitID = id
		} else {
			c.Extra = append(c.Extra, id)
		}
	}
	return c
}

var renameSuffixRe = regexp.MustCompile(`-\d+$`)

// CircuitKey strips the trailing segment letter (and its preceding dash, if
// the dashed form was used) from a circuit id: "L1A" -> "L1", "P-12-B" ->
// "P-12". A dedup rename suffix ("G3A-2") is peeled first so renamed wires
// still aggregate with their circuit. Ids outside the grammar are returned
// unchanged.
func CircuitKey(id string) string {
	base := id
	if !circuitIDRe.MatchString(base) {
		base = renameSuffixRe.ReplaceAllString(base, "")
	}
	if !circuitIDRe.MatchString(base) {
		return id
	}
	key := base[:len(base)-1]
	key = strings.TrimSuffix(key, "-")
	return key
}
