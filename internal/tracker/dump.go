package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/store"
)

// DecodeDump reads a local-storage dump. Values may be given either as JSON
// or, as local storage itself holds them, as JSON encoded into strings.
// Missing keys take their defaults; unknown keys are ignored.
func DecodeDump(r io.Reader) (*store.State, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding dump: %v", ErrValidation, err)
	}

	s := &store.State{}
	fields := []struct {
		key string
		dst any
	}{
		{store.KeyInventoryGroups, &s.Inventory},
		{store.KeyShippedGroups, &s.Shipped},
		{store.KeyDefaultRemark, &s.DefaultRemark},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := decodeValue(v, f.dst); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %v", ErrValidation, f.key, err)
		}
	}

	s.Inventory = s.Inventory.WithKind(model.KindInventory)
	s.Shipped = s.Shipped.WithKind(model.KindShipped)
	return s, nil
}

// decodeValue decodes v into dst, unwrapping one level of string encoding.
func decodeValue(v json.RawMessage, dst any) error {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || v[0] != '"' {
		return json.Unmarshal(v, dst)
	}

	var inner string
	if err := json.Unmarshal(v, &inner); err != nil {
		return err
	}
	if s, ok := dst.(*string); ok {
		// Local storage keeps strings JSON-encoded as well.
		if json.Unmarshal([]byte(inner), s) != nil {
			*s = inner
		}
		return nil
	}
	return json.Unmarshal([]byte(inner), dst)
}

// Import replaces all state with s after checking the collection invariants.
func (t *Tracker) Import(ctx context.Context, s *store.State) error {
	if err := model.CheckCollections(s.Inventory, s.Shipped); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := store.ReplaceState(ctx, t.DB, s); err != nil {
		return err
	}
	t.publish(store.KeyInventoryGroups, store.KeyShippedGroups, store.KeyDefaultRemark)
	t.Log.Info().
		Int("inventory_items", s.Inventory.ItemCount()).
		Int("shipped_items", s.Shipped.ItemCount()).
		Msg("state imported")
	return nil
}

// Export writes the current state in local-storage layout.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	s, err := t.State(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}
