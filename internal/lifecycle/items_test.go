package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/nexus/internal/model"
)

func TestAddItemDefaultRemark(t *testing.T) {
	g1 := inventoryGroup(jan5)
	groups := model.Groups{g1}

	tests := []struct {
		name    string
		remarks string
		want    string
	}{
		{"empty remark takes default", "", "测试备注"},
		{"custom remark kept", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newItem("a", "10000001", jan5)
			item.Remarks = tt.remarks

			next, changed := AddItem(g1.ID, item, groups, "测试备注")
			require.True(t, changed)
			require.Len(t, next[0].Items, 1)
			assert.Equal(t, tt.want, next[0].Items[0].Remarks)
			assert.Empty(t, groups[0].Items, "input must not be modified")
		})
	}
}

func TestAddItemPrepends(t *testing.T) {
	g1 := inventoryGroup(jan5, newItem("old", "10000001", jan5))

	next, changed := AddItem(g1.ID, newItem("new", "10000002", jan6), model.Groups{g1}, "")
	require.True(t, changed)
	assert.Equal(t, []string{"new", "old"}, ids(next[0].Items))
}

func TestAddItemMissingGroup(t *testing.T) {
	groups := model.Groups{inventoryGroup(jan5)}
	next, changed := AddItem("nope", newItem("a", "10000001", jan5), groups, "x")
	assert.False(t, changed)
	assert.Equal(t, groups, next)
}

func TestEditItemInPlace(t *testing.T) {
	a := newItem("a", "10000001", jan5)
	b := newItem("b", "10000002", jan5)
	c := newItem("c", "10000003", jan5)
	groups := model.Groups{inventoryGroup(jan5, a, b, c)}

	fields := b.Fields()
	fields.Remarks = ""
	fields.Password = "new-pw"

	next, changed := EditItem("b", fields, groups)
	require.True(t, changed)
	assert.Equal(t, []string{"a", "b", "c"}, ids(next[0].Items))

	edited := next[0].Items[1]
	assert.Equal(t, "new-pw", edited.Password)
	assert.Equal(t, "", edited.Remarks, "edits never take the default remark")
	assert.Equal(t, b.CreatedAt, edited.CreatedAt)
	assert.Equal(t, "r-b", groups[0].Items[1].Remarks)
}

func TestEditShippedItemKeepsShipment(t *testing.T) {
	a := newItem("a", "10000001", jan5)
	g1 := inventoryGroup(jan5, a)
	_, shipped, _ := Ship("a", g1.ID, model.Groups{g1}, nil, jan6)

	fields := a.Fields()
	fields.UsageCount = "9"

	next, changed := EditItem("a", fields, shipped)
	require.True(t, changed)

	edited := next[0].Items[0]
	require.True(t, edited.IsShipped())
	assert.Equal(t, jan6, edited.ShippedAt)
	assert.Equal(t, g1.ID, edited.OriginalGroupID)
	assert.Equal(t, "9", edited.UsageCount)
}

func TestEditItemUnchangedOrMissing(t *testing.T) {
	a := newItem("a", "10000001", jan5)
	groups := model.Groups{inventoryGroup(jan5, a)}

	_, changed := EditItem("a", a.Fields(), groups)
	assert.False(t, changed)

	_, changed = EditItem("missing", a.Fields(), groups)
	assert.False(t, changed)
}

func TestDeleteItemKeepsEmptyGroup(t *testing.T) {
	a := newItem("a", "10000001", jan5)
	b := newItem("b", "10000002", jan5)
	g1 := inventoryGroup(jan5, a)
	g2 := inventoryGroup(jan6, b)
	groups := model.Groups{g2, g1}

	next, changed := DeleteItem("a", g1.ID, groups)
	require.True(t, changed)

	assert.Equal(t, groups.ItemCount()-1, next.ItemCount())
	require.Len(t, next, 2, "emptied group stays visible")
	assert.Empty(t, next[1].Items)
	assert.NotNil(t, next[1].Items)
	assert.Equal(t, g2, next[0], "other groups unaffected")
}

func TestDeleteItemWrongGroupIsNoop(t *testing.T) {
	a := newItem("a", "10000001", jan5)
	g1 := inventoryGroup(jan5, a)
	g2 := inventoryGroup(jan6)
	groups := model.Groups{g2, g1}

	next, changed := DeleteItem("a", g2.ID, groups)
	assert.False(t, changed)
	assert.Equal(t, groups, next)
}

func TestGroupOperations(t *testing.T) {
	g1 := inventoryGroup(jan5, newItem("a", "10000001", jan5))
	g2 := inventoryGroup(jan6, newItem("b", "10000002", jan6))
	groups := model.Groups{g2, g1}

	t.Run("rename", func(t *testing.T) {
		next, changed := RenameGroup(g1.ID, "  周末批次 ", groups)
		require.True(t, changed)
		assert.Equal(t, "周末批次", next[1].Date)
		assert.Equal(t, g1.ID, next[1].ID)
		assert.Equal(t, g1.Items, next[1].Items)
		assert.Equal(t, "1月5日", groups[1].Date)
	})

	t.Run("rename to current label is idempotent", func(t *testing.T) {
		next, changed := RenameGroup(g1.ID, g1.Date, groups)
		assert.False(t, changed)
		assert.Equal(t, groups, next)
	})

	t.Run("rename blank", func(t *testing.T) {
		_, changed := RenameGroup(g1.ID, "   ", groups)
		assert.False(t, changed)
	})

	t.Run("delete group drops its items", func(t *testing.T) {
		next, changed := DeleteGroup(g2.ID, groups)
		require.True(t, changed)
		require.Len(t, next, 1)
		assert.Equal(t, g1.ID, next[0].ID)
		assert.Len(t, groups, 2)
	})

	t.Run("toggle expand", func(t *testing.T) {
		next, changed := ToggleExpand(g1.ID, groups)
		require.True(t, changed)
		assert.False(t, next[1].IsExpanded)
		assert.True(t, groups[1].IsExpanded)

		next, _ = ToggleExpand(g1.ID, next)
		assert.True(t, next[1].IsExpanded)
	})

	t.Run("missing group", func(t *testing.T) {
		for _, op := range []func() (model.Groups, bool){
			func() (model.Groups, bool) { return RenameGroup("x", "y", groups) },
			func() (model.Groups, bool) { return DeleteGroup("x", groups) },
			func() (model.Groups, bool) { return ToggleExpand("x", groups) },
		} {
			next, changed := op()
			assert.False(t, changed)
			assert.Equal(t, groups, next)
		}
	})
}

func TestLifecycleKeepsInvariants(t *testing.T) {
	now := jan5
	inv, g1 := NewInventoryGroup(now, nil)
	var shipped model.Groups

	for i, acct := range []string{"10000001", "10000002", "10000003"} {
		inv, _ = AddItem(g1, newItem(acct, acct, now.Add(time.Duration(i)*time.Minute)), inv, "")
	}
	require.NoError(t, model.CheckCollections(inv, shipped))

	inv, shipped, _ = Ship("10000002", g1, inv, shipped, jan6)
	require.NoError(t, model.CheckCollections(inv, shipped))

	inv, _ = DeleteGroup(g1, inv)
	require.NoError(t, model.CheckCollections(inv, shipped))

	inv, shipped, _ = Return("10000002", shipped[0].ID, inv, shipped, jan6)
	require.NoError(t, model.CheckCollections(inv, shipped))
	assert.Equal(t, 1, inv.ItemCount())
	assert.Equal(t, 0, shipped.ItemCount())
	assert.Equal(t, g1, inv[0].ID)
}
