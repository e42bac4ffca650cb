package expense

import (
	"encoding/json"
	"time"

	"github.com/fkhayef/splitclaim/internal/expense/settle"
	"github.com/shopspring/decimal"
)

// PaymentMethod is one way the host accepts payment. ImageKey points at a QR
// image in object storage.
type PaymentMethod struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	ImageKey string `json:"imageKey,omitempty"`
}

// PaymentMethodMetadata is a participant's snapshot of how they paid. The
// engine never reads it.
type PaymentMethodMetadata struct {
	Label  string     `json:"label"`
	Type   string     `json:"type"`
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

// Expense represents the shared cost being split
type Expense struct {
	ID             string
	Title          string
	Amount         decimal.Decimal
	Currency       string
	SettleMode     settle.Mode
	SettleMetadata json.RawMessage
	PaymentMethods []PaymentMethod
	CreatedAt      time.Time
}

// Metadata decodes the settle metadata for the expense's mode.
func (e *Expense) Metadata() (settle.Metadata, error) {
	return settle.Resolve(e.SettleMode, e.SettleMetadata)
}

// Participant represents one person's claim against an expense
type Participant struct {
	ID                    string
	ExpenseID             string
	Name                  string
	Amount                decimal.Decimal
	IsHost                bool
	IsPaid                bool
	PaymentMethodMetadata *PaymentMethodMetadata
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ToEntry converts to the settle package's roster entry
func (p *Participant) ToEntry() settle.Entry {
	return settle.Entry{
		ID:     p.ID,
		Name:   p.Name,
		Amount: p.Amount,
		IsHost: p.IsHost,
	}
}

// toRoster converts participants in creation order.
func toRoster(participants []*Participant) settle.Roster {
	roster := make(settle.Roster, len(participants))
	for i, p := range participants {
		roster[i] = p.ToEntry()
	}
	return roster
}

// Claim is a new or edited participant submission.
type Claim struct {
	// ParticipantID is empty for a new participant.
	ParticipantID         string
	Name                  string
	Amount                string
	MarkAsPaid            bool
	PaymentMethodMetadata *PaymentMethodMetadata
}

// ParticipantFields are the columns a claim write sets.
type ParticipantFields struct {
	Name                  string
	Amount                decimal.Decimal
	IsPaid                bool
	PaymentMethodMetadata *PaymentMethodMetadata
}

// Guard holds the limits the store checks inside the write transaction.
type Guard struct {
	// Budget caps the sum of non-host amounts (FRIEND).
	Budget decimal.NullDecimal
	// Capacity caps the number of non-host rows on insert (PERPAX). Zero
	// means unlimited.
	Capacity int
}

// guardFor derives the write guard from the resolved metadata.
func guardFor(e *Expense, md settle.Metadata) Guard {
	switch m := md.(type) {
	case settle.FriendMetadata:
		return Guard{Budget: decimal.NewNullDecimal(e.Amount)}
	case settle.PerPaxMetadata:
		return Guard{Capacity: m.NumberOfPax}
	default:
		return Guard{}
	}
}
