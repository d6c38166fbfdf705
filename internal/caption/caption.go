// Package caption derives caption text from gallery item fields and merges it
// with captions already stored in an image.
package caption

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// Separator joins caption segments.
const Separator = " - "

// Policy controls how a derived caption is combined with an existing one.
type Policy string

const (
	// PolicyAppend always appends the derived caption after the existing one.
	// Re-running a batch therefore repeats the segment.
	PolicyAppend Policy = "append"
	// PolicyDedupe leaves the file alone when the existing caption already
	// ends with the derived caption.
	PolicyDedupe Policy = "dedupe"
)

// ParsePolicy validates a policy name. The empty string selects PolicyAppend.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAppend:
		return PolicyAppend, nil
	case PolicyDedupe:
		return PolicyDedupe, nil
	}
	return "", fmt.Errorf("invalid merge policy %q (valid: append, dedupe)", s)
}

// Resolve builds the caption for an item: the distinct non-null, non-empty
// values of description, summary and title, shortest first, joined by Separator.
// Equal-length values keep their field order.
func Resolve(item model.Item) string {
	return Join(item.Description, item.Summary, item.Title)
}

// Join applies the caption rules to an arbitrary list of candidate fields.
func Join(fields ...string) string {
	seen := make(map[string]bool, len(fields))
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || model.IsNull(f) || seen[f] {
			continue
		}
		seen[f] = true
		parts = append(parts, f)
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return len(parts[i]) < len(parts[j])
	})
	return strings.Join(parts, Separator)
}

// Merge combines the caption already stored in a file with a derived one.
// present reports whether the file had a caption at all. The boolean result
// is false when nothing needs to be written.
func Merge(existing string, present bool, derived string, policy Policy) (string, bool) {
	if !present {
		return derived, true
	}
	if policy == PolicyDedupe && (existing == derived || strings.HasSuffix(existing, Separator+derived)) {
		return existing, false
	}
	return existing + Separator + derived, true
}
