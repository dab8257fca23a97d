package harness

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"
)

// NewRunID generates a run id from the given instant: a sortable UTC
// timestamp with microsecond precision, so lexical order of
// auto-generated ids matches generation order within one process clock.
func NewRunID(now time.Time) string {
	now = now.UTC()

	return fmt.Sprintf("%s_%06d",
		now.Format("20060102_150405"), now.Nanosecond()/1000)
}

// gitSHA returns the current HEAD commit, or empty when the repository
// state cannot be determined.
func gitSHA() string {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}

// normalizeBatchIDs trims, drops blanks, de-duplicates and sorts the
// caller-supplied batch ids so metadata is deterministic regardless of
// input order.
func normalizeBatchIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	slices.Sort(out)

	return out
}
