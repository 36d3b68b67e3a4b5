// Package lifecycle implements the item lifecycle: moving items between the
// inventory and shipped collections and keeping groups consistent as items
// are added, edited and deleted.
//
// Every function is pure. Inputs are never modified and results share no
// backing arrays with them, so callers may persist a result as one atomic
// replacement. Each function also reports whether anything changed; a
// reference to a missing group or item is a no-op that returns the inputs
// unchanged with changed == false.
package lifecycle

import (
	"slices"
	"time"

	"github.com/erazemk/nexus/internal/model"
)

// Ship moves the item itemID out of inventory group sourceGroupID and into
// the shipped group labelled with the date of now, creating that group at
// the front of the shipped collection if none carries the label yet. An
// inventory group emptied by the move is removed.
func Ship(itemID, sourceGroupID string, inventory, shipped model.Groups, now time.Time) (model.Groups, model.Groups, bool) {
	gi := inventory.IndexOf(sourceGroupID)
	if gi < 0 {
		return inventory, shipped, false
	}
	ii := inventory[gi].IndexOf(itemID)
	if ii < 0 {
		return inventory, shipped, false
	}

	nextInv := inventory.Clone()
	item := nextInv[gi].Items[ii]
	nextInv = removeItemAt(nextInv, gi, ii, true)

	item.Shipment = &model.Shipment{
		ShippedAt:       now,
		OriginalGroupID: sourceGroupID,
	}

	// Same-day shipments merge by label, so a renamed group stops
	// collecting them.
	label := model.DateLabel(now)
	nextShipped := shipped.Clone()
	for i := range nextShipped {
		if nextShipped[i].Date == label {
			nextShipped[i].Items = slices.Insert(nextShipped[i].Items, 0, item)
			return nextInv, nextShipped, true
		}
	}

	g := model.Group{
		ID:         uniqueGroupID(now, nextShipped),
		Date:       label,
		IsExpanded: true,
		Items:      []model.Item{item},
		Kind:       model.KindShipped,
	}
	return nextInv, slices.Insert(nextShipped, 0, g), true
}

// Return moves the shipped item itemID out of shipped group sourceGroupID
// back to the inventory group it was shipped from. If that group still
// exists the item is re-inserted in createdAt order (newest first);
// otherwise the group is recreated under its original id, labelled from the
// id in now's location, and the inventory is re-sorted newest group first.
// A shipped group emptied by the move is removed.
func Return(itemID, sourceGroupID string, inventory, shipped model.Groups, now time.Time) (model.Groups, model.Groups, bool) {
	gi := shipped.IndexOf(sourceGroupID)
	if gi < 0 {
		return inventory, shipped, false
	}
	ii := shipped[gi].IndexOf(itemID)
	if ii < 0 || !shipped[gi].Items[ii].IsShipped() {
		return inventory, shipped, false
	}

	nextShipped := shipped.Clone()
	shippedItem := nextShipped[gi].Items[ii]
	nextShipped = removeItemAt(nextShipped, gi, ii, true)

	originalGroupID := shippedItem.OriginalGroupID
	item := shippedItem.Stripped()

	nextInv := inventory.Clone()
	if i := nextInv.IndexOf(originalGroupID); i >= 0 {
		items := append(nextInv[i].Items, item)
		slices.SortStableFunc(items, func(a, b model.Item) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		nextInv[i].Items = items
		return nextInv, nextShipped, true
	}

	g := model.Group{
		ID:         originalGroupID,
		Date:       model.LabelForGroupID(originalGroupID, now.Location()),
		IsExpanded: true,
		Items:      []model.Item{item},
		Kind:       model.KindInventory,
	}
	nextInv = slices.Insert(nextInv, 0, g)
	sortGroupsNewestFirst(nextInv)
	return nextInv, nextShipped, true
}

// NewInventoryGroup prepends an empty, expanded inventory group created at
// now and returns the collection and the new group's id.
func NewInventoryGroup(now time.Time, groups model.Groups) (model.Groups, string) {
	g := model.Group{
		ID:         uniqueGroupID(now, groups),
		Date:       model.DateLabel(now),
		IsExpanded: true,
		Items:      []model.Item{},
		Kind:       model.KindInventory,
	}
	return slices.Insert(groups.Clone(), 0, g), g.ID
}

// removeItemAt deletes item ii of group gi in place. The group itself is
// dropped when it empties and dropEmpty is set.
func removeItemAt(gs model.Groups, gi, ii int, dropEmpty bool) model.Groups {
	gs[gi].Items = slices.Delete(gs[gi].Items, ii, ii+1)
	if dropEmpty && len(gs[gi].Items) == 0 {
		return slices.Delete(gs, gi, gi+1)
	}
	return gs
}

// uniqueGroupID derives a group id from now, advancing a millisecond at a
// time past ids already in gs.
func uniqueGroupID(now time.Time, gs model.Groups) string {
	id := model.GroupID(now)
	for gs.IndexOf(id) >= 0 {
		now = now.Add(time.Millisecond)
		id = model.GroupID(now)
	}
	return id
}

// sortGroupsNewestFirst orders groups by their id read as a creation
// instant. Ids that are not instants keep their relative order at the end.
func sortGroupsNewestFirst(gs model.Groups) {
	slices.SortStableFunc(gs, func(a, b model.Group) int {
		ta, errA := model.ParseGroupID(a.ID)
		tb, errB := model.ParseGroupID(b.ID)
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return tb.Compare(ta)
	})
}
