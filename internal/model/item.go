package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is a tracked account record.
type Item struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	Password   string    `json:"password"`
	InviteCode string    `json:"inviteCode"`
	UsageCount string    `json:"usageCount"`
	Remarks    string    `json:"remarks"`
	CreatedAt  time.Time `json:"createdAt"`

	// Shipment is set only while the item sits in a shipped group. Its
	// fields are flattened into the item's JSON, matching the browser layout.
	*Shipment
}

// Shipment is the metadata an item carries while shipped.
type Shipment struct {
	ShippedAt       time.Time `json:"shippedAt"`
	OriginalGroupID string    `json:"originalGroupId"`
}

// IsShipped reports whether the item carries shipment metadata.
func (i Item) IsShipped() bool {
	return i.Shipment != nil
}

// EffectivePassword returns the password, falling back to the account when
// the stored password is empty.
func (i Item) EffectivePassword() string {
	if i.Password == "" {
		return i.Account
	}
	return i.Password
}

// ClipboardText renders the copy block for an item.
func (i Item) ClipboardText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "账号：%s@qq.com\n", i.Account)
	fmt.Fprintf(&b, "密码：%s\n", i.EffectivePassword())
	fmt.Fprintf(&b, "备注：%s", i.Remarks)
	return b.String()
}

// Fields holds the user-editable subset of an item.
type Fields struct {
	Account    string `json:"account" validate:"required,number,min=4,max=12"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode" validate:"omitempty,max=6,alphanum,uppercase"`
	UsageCount string `json:"usageCount" validate:"omitempty,number"`
	Remarks    string `json:"remarks"`
}

// Fields returns the editable fields of the item.
func (i Item) Fields() Fields {
	return Fields{
		Account:    i.Account,
		Password:   i.Password,
		InviteCode: i.InviteCode,
		UsageCount: i.UsageCount,
		Remarks:    i.Remarks,
	}
}

// WithFields returns a copy of the item with the editable fields replaced.
// ID, CreatedAt and shipment metadata are kept.
func (i Item) WithFields(f Fields) Item {
	i.Account = f.Account
	i.Password = f.Password
	i.InviteCode = f.InviteCode
	i.UsageCount = f.UsageCount
	i.Remarks = f.Remarks
	if i.Shipment != nil {
		s := *i.Shipment
		i.Shipment = &s
	}
	return i
}

// Stripped returns a copy of the item without shipment metadata.
func (i Item) Stripped() Item {
	i.Shipment = nil
	return i
}
