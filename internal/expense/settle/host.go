package settle

// =============================================================================
// HOST STRATEGY
// The host pre-assigns an exact amount to every named member
// =============================================================================

// HostStrategy implements the Strategy interface for host-assigned amounts
type HostStrategy struct {
	metadata HostMetadata
}

// Mode returns the settle mode identifier
func (s *HostStrategy) Mode() Mode {
	return ModeHost
}

// Quote returns the amount already assigned to sel. The roster row wins; the
// metadata's memberAmounts is consulted only for a member without a row yet.
func (s *HostStrategy) Quote(roster Roster, sel *Entry, _ string) (Quote, error) {
	if sel == nil {
		return Quote{}, ErrSelectionRequired
	}
	if e, ok := roster.Find(sel.ID); ok {
		return Quote{OwedAmount: e.Amount.Round(2)}, nil
	}
	amount, ok := s.metadata.AmountFor(sel.Name)
	if !ok {
		return Quote{}, ErrParticipantUnknown
	}
	return Quote{OwedAmount: amount}, nil
}

// AcceptsNewParticipants is always false: only the host names members
func (s *HostStrategy) AcceptsNewParticipants(roster Roster) bool {
	return acceptsNew(s.metadata, roster)
}
