package entities

import "testing"

func TestReviewStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ReviewStatus
		want     bool
	}{
		{Created, Confirmed, true},
		{Created, Rejected, true},
		{Created, Archived, true},
		{Confirmed, Rejected, true},
		{Confirmed, Archived, true},
		{Confirmed, Created, false},
		{Rejected, Confirmed, true},
		{Rejected, Archived, true},
		{Archived, Created, false},
		{Archived, Confirmed, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%v -> %v = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestReviewStatusVisible(t *testing.T) {
	visible := []ReviewStatus{Created, Confirmed}
	for _, s := range visible {
		if !s.Visible() {
			t.Errorf("expected %v to be visible", s)
		}
	}
	invisible := []ReviewStatus{Rejected, Archived}
	for _, s := range invisible {
		if s.Visible() {
			t.Errorf("expected %v to be invisible", s)
		}
	}
}
