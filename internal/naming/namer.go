package naming

import "strings"

// Namer resolves display names, preferring configured overrides matched by
// executable path suffix over Normalize.
type Namer struct {
	overrides map[string]string
}

func NewNamer(overrides map[string]string) *Namer {
	copied := make(map[string]string, len(overrides))
	for suffix, name := range overrides {
		copied[suffix] = name
	}
	return &Namer{overrides: copied}
}

// DisplayName returns the label for a process. When several override
// suffixes match, the longest one wins so the result does not depend on map
// iteration order.
func (n *Namer) DisplayName(identity, path string) string {
	best := ""
	for suffix := range n.overrides {
		if suffix != "" && strings.HasSuffix(path, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}
	if best != "" {
		return n.overrides[best]
	}
	return Normalize(identity)
}
