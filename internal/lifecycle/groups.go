package lifecycle

import (
	"slices"
	"strings"

	"github.com/erazemk/nexus/internal/model"
)

// RenameGroup sets the label of group groupID. A blank label, or one equal
// to the current label after trimming, leaves groups untouched.
func RenameGroup(groupID, label string, groups model.Groups) (model.Groups, bool) {
	gi := groups.IndexOf(groupID)
	if gi < 0 {
		return groups, false
	}

	label = strings.TrimSpace(label)
	if label == "" || label == groups[gi].Date {
		return groups, false
	}

	next := groups.Clone()
	next[gi].Date = label
	return next, true
}

// DeleteGroup removes group groupID together with all of its items.
func DeleteGroup(groupID string, groups model.Groups) (model.Groups, bool) {
	gi := groups.IndexOf(groupID)
	if gi < 0 {
		return groups, false
	}
	return slices.Delete(groups.Clone(), gi, gi+1), true
}

// ToggleExpand flips the display state of group groupID.
func ToggleExpand(groupID string, groups model.Groups) (model.Groups, bool) {
	gi := groups.IndexOf(groupID)
	if gi < 0 {
		return groups, false
	}

	next := groups.Clone()
	next[gi].IsExpanded = !next[gi].IsExpanded
	return next, true
}
