// Package tracker coordinates user intents: it reads the persisted
// collections, validates input, runs the lifecycle engine and writes the
// result back as one replacement.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/lifecycle"
	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/store"
)

// ErrValidation marks input rejected before any state change.
var ErrValidation = errors.New("validation failed")

// Tracker owns both collections and the default remark.
type Tracker struct {
	DB     *sql.DB
	Broker *store.Broker
	Log    zerolog.Logger

	// Location renders date labels. Defaults to time.Local.
	Location *time.Location
	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string

	// Operations run one at a time, each to completion.
	mu sync.Mutex
}

// New creates a tracker over db.
func New(db *sql.DB, broker *store.Broker, log zerolog.Logger, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{
		DB:       db,
		Broker:   broker,
		Log:      log,
		Location: loc,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Result is the state after an operation and whether the operation applied.
// Referential misses leave Changed false and the state as it was.
type Result struct {
	State   *store.State `json:"state"`
	Changed bool         `json:"changed"`
}

func (t *Tracker) now() time.Time {
	return t.Now().In(t.Location)
}

// State returns the current persisted state.
func (t *Tracker) State(ctx context.Context) (*store.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return store.LoadState(ctx, t.DB)
}

// AddGroup creates today's inventory group.
func (t *Tracker) AddGroup(ctx context.Context) (Result, error) {
	var id string
	res, err := t.mutate(ctx, model.KindInventory, func(gs model.Groups) (model.Groups, bool) {
		var next model.Groups
		next, id = lifecycle.NewInventoryGroup(t.now(), gs)
		return next, true
	})
	if err == nil {
		t.Log.Info().Str("group", id).Msg("inventory group created")
	}
	return res, err
}

// AddItem validates fields and prepends a new item to inventory group
// groupID, applying the global default remark when remarks are empty.
func (t *Tracker) AddItem(ctx context.Context, groupID string, fields model.Fields) (Result, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	remark, err := store.LoadDefaultRemark(ctx, t.DB)
	if err != nil {
		return Result{}, err
	}

	item := model.Item{
		ID:        t.NewID(),
		CreatedAt: t.now(),
	}.WithFields(fields)

	res, err := t.mutateLocked(ctx, model.KindInventory, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.AddItem(groupID, item, gs, remark)
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("group", groupID).Str("item", item.ID).Str("account", item.Account).Msg("item added")
	}
	return res, err
}

// EditItem validates fields and applies them to item itemID in the
// collection of the given kind.
func (t *Tracker) EditItem(ctx context.Context, kind model.Kind, itemID string, fields model.Fields) (Result, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	res, err := t.mutate(ctx, kind, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.EditItem(itemID, fields, gs)
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("kind", string(kind)).Str("item", itemID).Msg("item edited")
	}
	return res, err
}

// DeleteItem removes item itemID from group groupID.
func (t *Tracker) DeleteItem(ctx context.Context, kind model.Kind, groupID, itemID string) (Result, error) {
	res, err := t.mutate(ctx, kind, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.DeleteItem(itemID, groupID, gs)
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("kind", string(kind)).Str("group", groupID).Str("item", itemID).Msg("item deleted")
	}
	return res, err
}

// RenameGroup relabels group groupID.
func (t *Tracker) RenameGroup(ctx context.Context, kind model.Kind, groupID, label string) (Result, error) {
	res, err := t.mutate(ctx, kind, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.RenameGroup(groupID, label, gs)
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("kind", string(kind)).Str("group", groupID).Str("label", label).Msg("group renamed")
	}
	return res, err
}

// DeleteGroup removes group groupID with all its items.
func (t *Tracker) DeleteGroup(ctx context.Context, kind model.Kind, groupID string) (Result, error) {
	res, err := t.mutate(ctx, kind, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.DeleteGroup(groupID, gs)
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("kind", string(kind)).Str("group", groupID).Msg("group deleted")
	}
	return res, err
}

// ToggleExpand flips the display state of group groupID.
func (t *Tracker) ToggleExpand(ctx context.Context, kind model.Kind, groupID string) (Result, error) {
	return t.mutate(ctx, kind, func(gs model.Groups) (model.Groups, bool) {
		return lifecycle.ToggleExpand(groupID, gs)
	})
}

// Ship moves item itemID out of inventory group groupID.
func (t *Tracker) Ship(ctx context.Context, groupID, itemID string) (Result, error) {
	res, err := t.move(ctx, func(inv, shipped model.Groups) (model.Groups, model.Groups, bool) {
		return lifecycle.Ship(itemID, groupID, inv, shipped, t.now())
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("group", groupID).Str("item", itemID).Msg("item shipped")
	}
	return res, err
}

// Return moves shipped item itemID out of shipped group groupID back to
// inventory.
func (t *Tracker) Return(ctx context.Context, groupID, itemID string) (Result, error) {
	res, err := t.move(ctx, func(inv, shipped model.Groups) (model.Groups, model.Groups, bool) {
		return lifecycle.Return(itemID, groupID, inv, shipped, t.now())
	})
	if err == nil && res.Changed {
		t.Log.Info().Str("group", groupID).Str("item", itemID).Msg("item returned")
	}
	return res, err
}

// DefaultRemark returns the global default remark.
func (t *Tracker) DefaultRemark(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return store.LoadDefaultRemark(ctx, t.DB)
}

// SetDefaultRemark replaces the global default remark.
func (t *Tracker) SetDefaultRemark(ctx context.Context, remark string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := store.SaveDefaultRemark(ctx, t.DB, remark); err != nil {
		return err
	}
	t.publish(store.KeyDefaultRemark)
	t.Log.Info().Str("remark", remark).Msg("default remark updated")
	return nil
}

// Clipboard returns the copy block for item itemID in the collection of the
// given kind, and false if there is no such item.
func (t *Tracker) Clipboard(ctx context.Context, kind model.Kind, itemID string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	gs, err := store.LoadGroups(ctx, t.DB, kind)
	if err != nil {
		return "", false, err
	}
	item, _, ok := gs.FindItem(itemID)
	if !ok {
		return "", false, nil
	}
	return item.ClipboardText(), true, nil
}

// mutate applies fn to one collection and persists the result if it changed.
func (t *Tracker) mutate(ctx context.Context, kind model.Kind, fn func(model.Groups) (model.Groups, bool)) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mutateLocked(ctx, kind, fn)
}

func (t *Tracker) mutateLocked(ctx context.Context, kind model.Kind, fn func(model.Groups) (model.Groups, bool)) (Result, error) {
	state, err := store.LoadState(ctx, t.DB)
	if err != nil {
		return Result{}, err
	}

	current := state.Inventory
	if kind == model.KindShipped {
		current = state.Shipped
	}

	next, changed := fn(current)
	if !changed {
		t.Log.Debug().Str("kind", string(kind)).Msg("operation did not apply")
		return Result{State: state}, nil
	}

	if err := store.SaveGroups(ctx, t.DB, kind, next); err != nil {
		return Result{}, err
	}

	if kind == model.KindShipped {
		state.Shipped = next
		t.publish(store.KeyShippedGroups)
	} else {
		state.Inventory = next
		t.publish(store.KeyInventoryGroups)
	}
	return Result{State: state, Changed: true}, nil
}

// move applies fn to both collections and persists them together.
func (t *Tracker) move(ctx context.Context, fn func(inv, shipped model.Groups) (model.Groups, model.Groups, bool)) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := store.LoadState(ctx, t.DB)
	if err != nil {
		return Result{}, err
	}

	inv, shipped, changed := fn(state.Inventory, state.Shipped)
	if !changed {
		t.Log.Debug().Msg("move did not apply")
		return Result{State: state}, nil
	}

	if err := store.SaveCollections(ctx, t.DB, inv, shipped); err != nil {
		return Result{}, err
	}
	t.publish(store.KeyInventoryGroups, store.KeyShippedGroups)

	state.Inventory, state.Shipped = inv, shipped
	return Result{State: state, Changed: true}, nil
}

func (t *Tracker) publish(keys ...string) {
	if t.Broker != nil {
		t.Broker.Publish(keys...)
	}
}
