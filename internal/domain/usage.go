// This file defines the persisted daily usage counter. One row exists per
// (user, action, calendar date) triple; the meter service owns all writes.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one day's counter for one action by one user.
type UsageRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ActionType ActionType
	UsageDate  time.Time // date only, server-local midnight
	Count      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UsageDay formats a time as the canonical usage_date value (YYYY-MM-DD).
// All daily windows are calendar days in the server's timezone; there is
// no per-user timezone handling.
func UsageDay(t time.Time) string {
	return t.Format("2006-01-02")
}
