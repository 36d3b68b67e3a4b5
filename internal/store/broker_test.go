package store

import "testing"

func TestBrokerPublish(t *testing.T) {
	b := NewBroker()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(KeyInventoryGroups, KeyShippedGroups)

	for _, ch := range []<-chan string{ch1, ch2} {
		if got := <-ch; got != KeyInventoryGroups {
			t.Errorf("expected %s, got %s", KeyInventoryGroups, got)
		}
		if got := <-ch; got != KeyShippedGroups {
			t.Errorf("expected %s, got %s", KeyShippedGroups, got)
		}
	}

	cancel1()
	cancel1()
	if _, open := <-ch1; open {
		t.Error("expected cancelled subscription to be closed")
	}

	// Publishing after a cancel must not panic.
	b.Publish(KeyDefaultRemark)
	if got := <-ch2; got != KeyDefaultRemark {
		t.Errorf("expected %s, got %s", KeyDefaultRemark, got)
	}
}
