package settle

import "github.com/shopspring/decimal"

// =============================================================================
// FRIEND STRATEGY
// Each participant declares how much they are paying
// =============================================================================

// FriendStrategy implements the Strategy interface for self-declared amounts
type FriendStrategy struct {
	total decimal.Decimal
}

// Mode returns the settle mode identifier
func (s *FriendStrategy) Mode() Mode {
	return ModeFriend
}

// Quote echoes the candidate amount and computes the balance left unclaimed
// once it is applied. When sel is an existing participant its prior amount is
// left out of the sum so an edit replaces it instead of adding to it. A blank
// candidate means zero for a new joiner and the prior amount for an edit.
func (s *FriendStrategy) Quote(roster Roster, sel *Entry, candidate string) (Quote, error) {
	excludeID := ""
	if sel != nil {
		excludeID = sel.ID
	}

	owed, err := parseOptionalAmount(candidate)
	if err != nil {
		return Quote{}, err
	}
	if isBlank(candidate) && sel != nil {
		if e, ok := roster.Find(sel.ID); ok {
			owed = e.Amount.Round(2)
		}
	}

	remaining := s.total.Sub(roster.Claimed(excludeID)).Sub(owed)
	remaining = decimal.Max(remaining, decimal.Zero).Round(2)

	return Quote{
		OwedAmount:       owed,
		RemainingBalance: decimal.NullDecimal{Decimal: remaining, Valid: true},
		Editable:         true,
	}, nil
}

// AcceptsNewParticipants is always true
func (s *FriendStrategy) AcceptsNewParticipants(_ Roster) bool {
	return true
}

// Remaining returns the unclaimed balance before any candidate is applied.
func (s *FriendStrategy) Remaining(roster Roster) decimal.Decimal {
	return decimal.Max(s.total.Sub(roster.Claimed("")), decimal.Zero).Round(2)
}
