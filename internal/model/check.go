package model

import "fmt"

// CheckCollections verifies the cross-collection invariants: every item
// lives in exactly one group of exactly one collection, group ids are unique
// within their collection, and shipment metadata is present exactly on items
// of shipped groups.
func CheckCollections(inventory, shipped Groups) error {
	seen := make(map[string]string)

	check := func(gs Groups, kind Kind) error {
		groupIDs := make(map[string]bool, len(gs))
		for _, g := range gs {
			if g.Kind != "" && g.Kind != kind {
				return fmt.Errorf("group %s tagged %s in %s collection", g.ID, g.Kind, kind)
			}
			if groupIDs[g.ID] {
				return fmt.Errorf("duplicate %s group id %s", kind, g.ID)
			}
			groupIDs[g.ID] = true

			for _, it := range g.Items {
				if where, dup := seen[it.ID]; dup {
					return fmt.Errorf("item %s appears in %s and %s/%s", it.ID, where, kind, g.ID)
				}
				seen[it.ID] = string(kind) + "/" + g.ID

				if kind == KindShipped && !it.IsShipped() {
					return fmt.Errorf("item %s in shipped group %s has no shipment", it.ID, g.ID)
				}
				if kind == KindInventory && it.IsShipped() {
					return fmt.Errorf("item %s in inventory group %s carries a shipment", it.ID, g.ID)
				}
			}
		}
		return nil
	}

	if err := check(inventory, KindInventory); err != nil {
		return err
	}
	return check(shipped, KindShipped)
}
