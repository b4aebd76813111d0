package domain

import (
	"strings"
	"time"
)

// OrderQuery filters order listings. Zero values disable a filter.
type OrderQuery struct {
	// Search matches a substring of the customer name, ignoring case.
	Search string
	// Email matches a substring of the customer email, ignoring case.
	Email string
	// OrderDate keeps orders placed on the same calendar day (UTC).
	OrderDate *time.Time
}

// DayBounds returns the half-open UTC interval covering the day of t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Matches applies the query filters to a single order.
func (q OrderQuery) Matches(o *Order) bool {
	if o == nil {
		return false
	}
	if s := strings.TrimSpace(q.Search); s != "" && !containsFold(o.UserName, s) {
		return false
	}
	if e := strings.TrimSpace(q.Email); e != "" && !containsFold(o.UserEmail, e) {
		return false
	}
	if q.OrderDate != nil {
		start, end := DayBounds(*q.OrderDate)
		placed := o.OrderDate.UTC()
		if placed.Before(start) || !placed.Before(end) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
