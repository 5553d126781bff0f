// This file implements the entitlement check: given a tier, a usage
// snapshot, and an action, decide whether the action is allowed. These are
// pure functions with no I/O; the server-side meter is the authority for
// daily counters, this logic only interprets the numbers it is handed.
package domain

// UsageSnapshot maps actions to observed usage counts. Cumulative actions
// (wardrobe items, plans, looks) carry live row counts; daily actions carry
// today's counter. A missing entry is treated as zero usage.
type UsageSnapshot map[ActionType]int

// CanPerform reports whether a user on the given tier, with the given usage,
// may perform the action. Unlimited always allows; otherwise the comparison
// is strictly less-than, so a user at exactly the limit is denied.
func CanPerform(tier SubscriptionTier, usage UsageSnapshot, action ActionType) bool {
	limit := GetTier(tier).Limits[action]
	if limit == Unlimited {
		return true
	}
	return usage[action] < limit
}

// Remaining returns how many more times the action may be performed, or
// Unlimited for uncapped actions. Never negative.
func Remaining(tier SubscriptionTier, usage UsageSnapshot, action ActionType) int {
	limit := GetTier(tier).Limits[action]
	if limit == Unlimited {
		return Unlimited
	}
	if r := limit - usage[action]; r > 0 {
		return r
	}
	return 0
}

// UsagePercentage returns usage as a percentage of the limit, capped at 100.
// Unlimited actions always report 0 so progress bars stay empty.
func UsagePercentage(tier SubscriptionTier, usage UsageSnapshot, action ActionType) float64 {
	limit := GetTier(tier).Limits[action]
	if limit == Unlimited {
		return 0
	}
	if limit <= 0 {
		return 100
	}
	pct := float64(usage[action]) / float64(limit) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
