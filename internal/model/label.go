package model

import (
	"fmt"
	"time"
)

// DateLabel renders an instant as a short "<month>月<day>日" label in the
// instant's own location. Shipped items are merged by label equality, so this
// must stay a pure function of t.
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%d月%d日", int(t.Month()), t.Day())
}

// LabelForGroupID formats a time-derived group id as a date label in loc.
// Ids that are not timestamps are returned unchanged.
func LabelForGroupID(id string, loc *time.Location) string {
	t, err := ParseGroupID(id)
	if err != nil {
		return id
	}
	if loc == nil {
		loc = time.Local
	}
	return DateLabel(t.In(loc))
}
