package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nexus/internal/model"
)

// State is everything the tracker persists. Its JSON form is the browser's
// local-storage layout, one member per key.
type State struct {
	Inventory     model.Groups `json:"inventoryGroups"`
	Shipped       model.Groups `json:"shippedGroups"`
	DefaultRemark string       `json:"globalDefaultRemark"`
}

// LoadGroups returns the collection of the given kind, or an empty one.
func LoadGroups(ctx context.Context, db *sql.DB, kind model.Kind) (model.Groups, error) {
	var groups model.Groups
	if _, err := GetJSON(ctx, db, groupsKey(kind), &groups); err != nil {
		return nil, err
	}
	return groups.WithKind(kind), nil
}

// SaveGroups replaces the collection of the given kind.
func SaveGroups(ctx context.Context, db *sql.DB, kind model.Kind, groups model.Groups) error {
	return setJSON(ctx, db, groupsKey(kind), nonNil(groups))
}

// LoadDefaultRemark returns the global default remark, or "".
func LoadDefaultRemark(ctx context.Context, db *sql.DB) (string, error) {
	var remark string
	if _, err := GetJSON(ctx, db, KeyDefaultRemark, &remark); err != nil {
		return "", err
	}
	return remark, nil
}

// SaveDefaultRemark replaces the global default remark.
func SaveDefaultRemark(ctx context.Context, db *sql.DB, remark string) error {
	return setJSON(ctx, db, KeyDefaultRemark, remark)
}

// LoadState reads all persisted values.
func LoadState(ctx context.Context, db *sql.DB) (*State, error) {
	inv, err := LoadGroups(ctx, db, model.KindInventory)
	if err != nil {
		return nil, err
	}
	shipped, err := LoadGroups(ctx, db, model.KindShipped)
	if err != nil {
		return nil, err
	}
	remark, err := LoadDefaultRemark(ctx, db)
	if err != nil {
		return nil, err
	}
	return &State{Inventory: inv, Shipped: shipped, DefaultRemark: remark}, nil
}

// SaveCollections replaces both collections in a single transaction, so a
// move between them is never persisted half done.
func SaveCollections(ctx context.Context, db *sql.DB, inventory, shipped model.Groups) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if err := setJSON(ctx, tx, KeyInventoryGroups, nonNil(inventory)); err != nil {
			return err
		}
		return setJSON(ctx, tx, KeyShippedGroups, nonNil(shipped))
	})
}

// ReplaceState replaces every persisted value in a single transaction.
func ReplaceState(ctx context.Context, db *sql.DB, s *State) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if err := setJSON(ctx, tx, KeyInventoryGroups, nonNil(s.Inventory)); err != nil {
			return err
		}
		if err := setJSON(ctx, tx, KeyShippedGroups, nonNil(s.Shipped)); err != nil {
			return err
		}
		return setJSON(ctx, tx, KeyDefaultRemark, s.DefaultRemark)
	})
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func groupsKey(kind model.Kind) string {
	if kind == model.KindShipped {
		return KeyShippedGroups
	}
	return KeyInventoryGroups
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil(gs model.Groups) model.Groups {
	if gs == nil {
		return model.Groups{}
	}
	return gs
}
