package artifact

import (
	"fmt"
	"strings"
)

// AmbiguousArtifactError means a pattern did not match exactly one entry.
// The build output is inconsistent and the release must not proceed.
type AmbiguousArtifactError struct {
	Kind    string   // Artifact kind from the registry
	Pattern string   // Regular expression that was applied
	Dir     string   // Directory that was scanned
	Matches []string // Matching entry names (empty when missing)
}

func (e *AmbiguousArtifactError) Error() string {
	if e.Missing() {
		return fmt.Sprintf("no %s artifact in %s matches %s", e.Kind, e.Dir, e.Pattern)
	}
	return fmt.Sprintf("%d %s artifacts in %s match %s: %s",
		len(e.Matches), e.Kind, e.Dir, e.Pattern, strings.Join(e.Matches, ", "))
}

// Missing reports that nothing matched.
func (e *AmbiguousArtifactError) Missing() bool {
	return len(e.Matches) == 0
}

// Duplicated reports that more than one entry matched.
func (e *AmbiguousArtifactError) Duplicated() bool {
	return len(e.Matches) > 1
}
