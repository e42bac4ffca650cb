package settle

import "github.com/shopspring/decimal"

// =============================================================================
// PERPAX STRATEGY
// Every participant owes the same fixed amount, up to a fixed headcount
// =============================================================================

// PerPaxStrategy implements the Strategy interface for even per-head splits
type PerPaxStrategy struct {
	metadata PerPaxMetadata
	amount   decimal.Decimal
}

// Mode returns the settle mode identifier
func (s *PerPaxStrategy) Mode() Mode {
	return ModePerPax
}

// Quote returns perPaxAmount regardless of roster size or selection
func (s *PerPaxStrategy) Quote(_ Roster, _ *Entry, _ string) (Quote, error) {
	return Quote{OwedAmount: s.amount}, nil
}

// AcceptsNewParticipants is true while fewer than numberOfPax members joined
func (s *PerPaxStrategy) AcceptsNewParticipants(roster Roster) bool {
	return acceptsNew(s.metadata, roster)
}

// OpenSlots returns how many members can still join.
func (s *PerPaxStrategy) OpenSlots(roster Roster) int {
	open := s.metadata.NumberOfPax - len(roster.Members())
	if open < 0 {
		return 0
	}
	return open
}
