package lifecycle

import (
	"slices"

	"github.com/erazemk/nexus/internal/model"
)

// AddItem prepends item to group groupID. An empty remark is replaced by
// defaultRemark; this substitution only ever happens for new items.
func AddItem(groupID string, item model.Item, groups model.Groups, defaultRemark string) (model.Groups, bool) {
	gi := groups.IndexOf(groupID)
	if gi < 0 {
		return groups, false
	}

	if item.Remarks == "" {
		item.Remarks = defaultRemark
	}

	next := groups.Clone()
	next[gi].Items = slices.Insert(next[gi].Items, 0, item.Stripped())
	return next, true
}

// EditItem replaces the editable fields of item itemID wherever it sits in
// groups, keeping its position, id, creation time and shipment metadata.
func EditItem(itemID string, fields model.Fields, groups model.Groups) (model.Groups, bool) {
	for gi, g := range groups {
		ii := g.IndexOf(itemID)
		if ii < 0 {
			continue
		}
		if g.Items[ii].Fields() == fields {
			return groups, false
		}

		next := groups.Clone()
		next[gi].Items[ii] = next[gi].Items[ii].WithFields(fields)
		return next, true
	}
	return groups, false
}

// DeleteItem removes item itemID from group groupID. Unlike Ship and Return
// the group is kept even when this leaves it empty.
func DeleteItem(itemID, groupID string, groups model.Groups) (model.Groups, bool) {
	gi := groups.IndexOf(groupID)
	if gi < 0 {
		return groups, false
	}
	ii := groups[gi].IndexOf(itemID)
	if ii < 0 {
		return groups, false
	}

	return removeItemAt(groups.Clone(), gi, ii, false), true
}
