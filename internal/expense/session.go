package expense

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fkhayef/splitclaim/internal/expense/settle"
)

// SessionState is a step in one participant's claim flow.
type SessionState int

const (
	StateNoSelection SessionState = iota
	StateNameEntered
	StateParticipantSelected
	StateAmountConfirmed
	StatePaymentMethodChosen
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateNoSelection:
		return "NoSelection"
	case StateNameEntered:
		return "NameEntered"
	case StateParticipantSelected:
		return "ParticipantSelected"
	case StateAmountConfirmed:
		return "AmountConfirmed"
	case StatePaymentMethodChosen:
		return "PaymentMethodChosen"
	case StateSubmitted:
		return "Submitted"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Submitter performs the claim write. *Service implements it.
type Submitter interface {
	SubmitClaim(ctx context.Context, expenseID, secret string, c Claim) ([]*Participant, error)
}

// ClaimSession holds the transient form state of one claim against a roster
// snapshot. Sessions share nothing; at most one submit runs at a time.
type ClaimSession struct {
	mu sync.Mutex

	expense   *Expense
	metadata  settle.Metadata
	roster    settle.Roster
	submitter Submitter

	state    SessionState
	claim    Claim
	result   settle.Result
	inFlight bool
	stale    bool
}

// NewClaimSession starts a session on the roster snapshot in view.
func NewClaimSession(view *ExpenseView, submitter Submitter) *ClaimSession {
	return &ClaimSession{
		expense:   view.Expense,
		metadata:  view.Metadata,
		roster:    view.Roster(),
		submitter: submitter,
	}
}

// State returns the current step.
func (cs *ClaimSession) State() SessionState {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state
}

// Result returns the current validation messages.
func (cs *ClaimSession) Result() settle.Result {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.result
}

// RosterStale reports whether the last saved claim is missing from the
// roster snapshot.
func (cs *ClaimSession) RosterStale() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.stale
}

// Claim returns the claim as entered so far.
func (cs *ClaimSession) Claim() Claim {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.claim
}

// EnterName starts a claim under a new name.
func (cs *ClaimSession) EnterName(name string) (settle.Result, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.editable(); err != nil {
		return cs.result, err
	}
	cs.claim.ParticipantID = ""
	cs.claim.Name = name
	cs.state = StateNameEntered
	cs.result = settle.Revalidate(cs.result, settle.FieldName, cs.metadata, cs.input(), cs.roster)
	return cs.result, nil
}

// SelectParticipant starts an edit of an existing non-host participant. In
// FRIEND mode the prior amount is prefilled.
func (cs *ClaimSession) SelectParticipant(id string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.editable(); err != nil {
		return err
	}
	sel, err := selectEntry(cs.roster, id)
	if err != nil {
		return err
	}
	cs.claim.ParticipantID = sel.ID
	cs.claim.Name = sel.Name
	cs.claim.Amount = ""
	if cs.metadata.Mode() == settle.ModeFriend {
		cs.claim.Amount = settle.FormatAmount(sel.Amount)
	}
	cs.state = StateParticipantSelected
	cs.result = settle.Result{}
	return nil
}

// SetAmount records the typed amount and re-runs only the amount rule.
func (cs *ClaimSession) SetAmount(amount string) (settle.Result, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.editable(); err != nil {
		return cs.result, err
	}
	if cs.state == StateNoSelection {
		return cs.result, fmt.Errorf("%w: set amount from %s", ErrInvalidTransition, cs.state)
	}
	cs.claim.Amount = amount
	cs.result = settle.Revalidate(cs.result, settle.FieldAmount, cs.metadata, cs.input(), cs.roster)
	return cs.result, nil
}

// Quote computes the owed amount for the current selection and amount.
func (cs *ClaimSession) Quote() (settle.Quote, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.quote()
}

// ConfirmAmount runs full validation and moves to AmountConfirmed when it
// passes.
func (cs *ClaimSession) ConfirmAmount() (settle.Quote, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.editable(); err != nil {
		return settle.Quote{}, err
	}
	if cs.state == StateNoSelection {
		return settle.Quote{}, fmt.Errorf("%w: confirm amount from %s", ErrInvalidTransition, cs.state)
	}
	cs.result = settle.Validate(cs.metadata, cs.input(), cs.roster)
	if !cs.result.Valid() {
		return settle.Quote{}, &ValidationError{Result: cs.result}
	}
	q, err := cs.quote()
	if err != nil {
		return settle.Quote{}, err
	}
	cs.state = StateAmountConfirmed
	return q, nil
}

// ChoosePaymentMethod records how the participant pays.
func (cs *ClaimSession) ChoosePaymentMethod(pm *PaymentMethodMetadata, markAsPaid bool) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.editable(); err != nil {
		return err
	}
	if cs.state != StateAmountConfirmed && cs.state != StatePaymentMethodChosen {
		return fmt.Errorf("%w: choose payment method from %s", ErrInvalidTransition, cs.state)
	}
	cs.claim.PaymentMethodMetadata = pm
	cs.claim.MarkAsPaid = markAsPaid
	cs.state = StatePaymentMethodChosen
	return nil
}

// Submit writes the claim. On failure the session returns to AmountConfirmed
// with the generic field set; on success it is Submitted and the roster
// snapshot is replaced with the one read back after the write. When the read
// back failed the old snapshot is kept and RosterStale reports true.
func (cs *ClaimSession) Submit(ctx context.Context, secret string) ([]*Participant, error) {
	cs.mu.Lock()
	if cs.inFlight {
		cs.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if cs.state != StateAmountConfirmed && cs.state != StatePaymentMethodChosen {
		state := cs.state
		cs.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, state)
	}
	cs.result = settle.Validate(cs.metadata, cs.input(), cs.roster)
	if !cs.result.Valid() {
		res := cs.result
		cs.mu.Unlock()
		return nil, &ValidationError{Result: res}
	}
	cs.inFlight = true
	expenseID, claim := cs.expense.ID, cs.claim
	cs.mu.Unlock()

	participants, err := cs.submitter.SubmitClaim(ctx, expenseID, secret, claim)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.inFlight = false

	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			cs.result = vErr.Result
		} else {
			cs.result = genericResult(err)
		}
		cs.state = StateAmountConfirmed
		return nil, err
	}

	cs.stale = participants == nil
	if !cs.stale {
		cs.roster = toRoster(participants)
	}
	cs.result = settle.Result{}
	cs.state = StateSubmitted
	return participants, nil
}

// Reset clears the selection, amount and payment method.
func (cs *ClaimSession) Reset() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.inFlight {
		return ErrSubmitInFlight
	}
	cs.claim = Claim{}
	cs.result = settle.Result{}
	cs.state = StateNoSelection
	return nil
}

// editable rejects changes while a submit runs or after success.
func (cs *ClaimSession) editable() error {
	if cs.inFlight {
		return ErrSubmitInFlight
	}
	if cs.state == StateSubmitted {
		return fmt.Errorf("%w: session already submitted", ErrInvalidTransition)
	}
	return nil
}

func (cs *ClaimSession) input() settle.ClaimInput {
	return claimInput(cs.claim)
}

func (cs *ClaimSession) quote() (settle.Quote, error) {
	var sel *settle.Entry
	if cs.claim.ParticipantID != "" {
		e, ok := cs.roster.Find(cs.claim.ParticipantID)
		if !ok {
			return settle.Quote{}, ErrParticipantNotFound
		}
		sel = &e
	}
	return settle.ComputeOwedAmount(cs.expense.SettleMode, cs.expense.Amount, cs.metadata, cs.roster, sel, cs.claim.Amount)
}
