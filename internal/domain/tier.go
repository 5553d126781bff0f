// Package domain contains core business types and interfaces.
//
// This file defines the subscription tier table that gates feature usage.
// The table is static: tiers and limits change only with a code deploy,
// never at runtime.
package domain

// ActionType identifies a quota-gated user action.
type ActionType string

const (
	ActionWardrobeItems ActionType = "wardrobe_items"
	ActionOutfitPlans   ActionType = "outfit_plans"
	ActionAIChatsPerDay ActionType = "ai_chats_per_day"
	ActionSavedLooks    ActionType = "saved_looks"
)

// Label returns a human-readable name for the action, for error messages.
func (a ActionType) Label() string {
	switch a {
	case ActionWardrobeItems:
		return "wardrobe item"
	case ActionOutfitPlans:
		return "outfit plan"
	case ActionAIChatsPerDay:
		return "daily AI chat"
	case ActionSavedLooks:
		return "saved look"
	default:
		return string(a)
	}
}

// Unlimited is the sentinel limit meaning an action has no cap for a tier.
const Unlimited = -1

// TierDefinition describes one subscription tier: display info plus the
// per-action limits. A limit of Unlimited (-1) means no cap.
type TierDefinition struct {
	ID     SubscriptionTier
	Name   string
	Price  int // USD per month
	Limits map[ActionType]int
}

// Tiers maps tier IDs to their definitions. Callers must not mutate the
// returned maps; use GetTier for lookup with fallback.
var Tiers = map[SubscriptionTier]TierDefinition{
	SubscriptionTierFree: {
		ID:    SubscriptionTierFree,
		Name:  "Free",
		Price: 0,
		Limits: map[ActionType]int{
			ActionWardrobeItems: 20,
			ActionOutfitPlans:   5,
			ActionAIChatsPerDay: 5,
			ActionSavedLooks:    10,
		},
	},
	SubscriptionTierPaid: {
		ID:    SubscriptionTierPaid,
		Name:  "Style Pro",
		Price: 25,
		Limits: map[ActionType]int{
			ActionWardrobeItems: Unlimited,
			ActionOutfitPlans:   50,
			ActionAIChatsPerDay: 100,
			ActionSavedLooks:    100,
		},
	},
	SubscriptionTierPremium: {
		ID:    SubscriptionTierPremium,
		Name:  "Fashion Elite",
		Price: 40,
		Limits: map[ActionType]int{
			ActionWardrobeItems: Unlimited,
			ActionOutfitPlans:   Unlimited,
			ActionAIChatsPerDay: Unlimited,
			ActionSavedLooks:    Unlimited,
		},
	},
}

// GetTier returns the definition for a tier, defaulting to the free tier
// for unknown or empty tier values. An unrecognized tier must never grant
// more access than free.
func GetTier(tier SubscriptionTier) TierDefinition {
	if def, ok := Tiers[tier]; ok {
		return def
	}
	return Tiers[SubscriptionTierFree]
}
