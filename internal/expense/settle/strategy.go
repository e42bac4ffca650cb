package settle

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Quote is the outcome of an owed-amount computation.
type Quote struct {
	OwedAmount decimal.Decimal
	// RemainingBalance is only valid in modes where the unclaimed balance
	// depends on what participants declare.
	RemainingBalance decimal.NullDecimal
	Editable         bool
}

// Strategy is the interface that all settle strategies must implement
type Strategy interface {
	// Mode returns the settle mode this strategy serves
	Mode() Mode

	// Quote computes what sel owes. A nil sel stands for a new joiner; candidate
	// is the amount typed by the user and is ignored by non-editable modes.
	Quote(roster Roster, sel *Entry, candidate string) (Quote, error)

	// AcceptsNewParticipants reports whether a claim under a new name is
	// allowed given the current roster
	AcceptsNewParticipants(roster Roster) bool
}

// Factory creates settle strategies from resolved metadata
type Factory struct{}

// NewStrategyFactory creates a new factory instance
func NewStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy for md. total is the expense amount.
func (f *Factory) Create(total decimal.Decimal, md Metadata) (Strategy, error) {
	switch m := md.(type) {
	case HostMetadata:
		return &HostStrategy{metadata: m}, nil
	case PerPaxMetadata:
		amount, err := m.Amount()
		if err != nil {
			return nil, fmt.Errorf("%w: perPaxAmount: %v", ErrMalformedMetadata, err)
		}
		return &PerPaxStrategy{metadata: m, amount: amount}, nil
	case FriendMetadata:
		return &FriendStrategy{total: total}, nil
	case nil:
		return nil, fmt.Errorf("%w: no metadata", ErrMalformedMetadata)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownSettleMode, md)
	}
}

// ComputeOwedAmount resolves the strategy for md and quotes sel against it.
// mode must agree with md; a mismatch is a programming error.
func ComputeOwedAmount(mode Mode, total decimal.Decimal, md Metadata, roster Roster, sel *Entry, candidate string) (Quote, error) {
	if md == nil || md.Mode() != mode {
		return Quote{}, ErrModeMismatch
	}
	strategy, err := NewStrategyFactory().Create(total, md)
	if err != nil {
		return Quote{}, err
	}
	return strategy.Quote(roster, sel, candidate)
}

var (
	ErrUnknownSettleMode  = errors.New("unknown settle mode")
	ErrMalformedMetadata  = errors.New("settle metadata does not match settle mode")
	ErrModeMismatch       = errors.New("settle mode does not match metadata")
	ErrAmountRequired     = errors.New("amount is required")
	ErrInvalidAmount      = errors.New("amount is not a number")
	ErrAmountOutOfRange   = fmt.Errorf("%w: out of range", ErrInvalidAmount)
	ErrSelectionRequired  = errors.New("a participant must be selected in HOST mode")
	ErrParticipantUnknown = errors.New("participant has no assigned amount")
)

// acceptsNew is shared by the strategies and the validator.
func acceptsNew(md Metadata, roster Roster) bool {
	switch m := md.(type) {
	case HostMetadata:
		return false
	case PerPaxMetadata:
		return len(roster.Members()) < m.NumberOfPax
	default:
		return true
	}
}
