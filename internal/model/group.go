package model

import (
	"fmt"
	"time"
)

// Kind tags which collection a group belongs to.
type Kind string

// Group kinds.
const (
	KindInventory Kind = "inventory"
	KindShipped   Kind = "shipped"
)

// ParseKind converts a path segment or flag value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInventory, KindShipped:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown group kind %q", s)
	}
}

// Group is a named, ordered bucket of items. Inventory groups hold plain
// items; shipped groups hold items with shipment metadata.
type Group struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	IsExpanded bool   `json:"isExpanded"`
	Items      []Item `json:"items"`
	Kind       Kind   `json:"-"`
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	items := make([]Item, len(g.Items))
	for i, it := range g.Items {
		if it.Shipment != nil {
			s := *it.Shipment
			it.Shipment = &s
		}
		items[i] = it
	}
	g.Items = items
	return g
}

// IndexOf returns the position of the item with the given id, or -1.
func (g Group) IndexOf(itemID string) int {
	for i, it := range g.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Groups is an ordered collection of groups of a single kind.
type Groups []Group

// Clone returns a deep copy of the collection. A nil collection clones to an
// empty one.
func (gs Groups) Clone() Groups {
	out := make(Groups, len(gs))
	for i, g := range gs {
		out[i] = g.Clone()
	}
	return out
}

// IndexOf returns the position of the group with the given id, or -1.
func (gs Groups) IndexOf(groupID string) int {
	for i, g := range gs {
		if g.ID == groupID {
			return i
		}
	}
	return -1
}

// FindItem returns the item with the given id and the id of the group
// holding it.
func (gs Groups) FindItem(itemID string) (Item, string, bool) {
	for _, g := range gs {
		if i := g.IndexOf(itemID); i >= 0 {
			return g.Items[i], g.ID, true
		}
	}
	return Item{}, "", false
}

// ItemCount returns the number of items across all groups.
func (gs Groups) ItemCount() int {
	n := 0
	for _, g := range gs {
		n += len(g.Items)
	}
	return n
}

// WithKind returns a copy of the collection with every group tagged k.
// Used after decoding, since the tag is not part of the stored JSON.
func (gs Groups) WithKind(k Kind) Groups {
	out := gs.Clone()
	for i := range out {
		out[i].Kind = k
		if out[i].Items == nil {
			out[i].Items = []Item{}
		}
	}
	return out
}

// GroupIDLayout is the layout of time-derived group ids.
const GroupIDLayout = "2006-01-02T15:04:05.000Z"

// GroupID formats an instant as a group id.
func GroupID(t time.Time) string {
	return t.UTC().Format(GroupIDLayout)
}

// ParseGroupID interprets a group id as its creation instant.
func ParseGroupID(id string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing group id %q: %w", id, err)
	}
	return t, nil
}
