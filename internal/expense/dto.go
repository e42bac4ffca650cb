package expense

import (
	"encoding/json"
	"time"

	"github.com/fkhayef/splitclaim/internal/currency"
	"github.com/fkhayef/splitclaim/internal/expense/settle"
)

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	Title          string          `json:"title"`
	Amount         string          `json:"amount" example:"120.00"`
	Currency       string          `json:"currency" example:"SGD"`
	SettleMode     string          `json:"settle_mode" example:"FRIEND" enums:"HOST,PERPAX,FRIEND"`
	SettleMetadata json.RawMessage `json:"settle_metadata" swaggertype:"object"`
	PaymentMethods []PaymentMethod `json:"payment_methods,omitempty"`
	HostName       string          `json:"host_name" example:"Dana"`
	Secret         string          `json:"secret"`
}

// QuoteRequest asks for the owed amount of a selection and candidate amount
type QuoteRequest struct {
	ParticipantID string `json:"participant_id,omitempty"`
	Amount        string `json:"amount,omitempty" example:"20"`
}

// ClaimRequest represents a new or edited participant claim
type ClaimRequest struct {
	ParticipantID         string                 `json:"participant_id,omitempty"`
	Name                  string                 `json:"name"`
	Amount                string                 `json:"amount,omitempty" example:"20.00"`
	MarkAsPaid            bool                   `json:"mark_as_paid"`
	PaymentMethodMetadata *PaymentMethodMetadata `json:"payment_method_metadata,omitempty"`
}

// ToClaim converts the request to the service's claim type
func (r *ClaimRequest) ToClaim() Claim {
	return Claim{
		ParticipantID:         r.ParticipantID,
		Name:                  r.Name,
		Amount:                r.Amount,
		MarkAsPaid:            r.MarkAsPaid,
		PaymentMethodMetadata: r.PaymentMethodMetadata,
	}
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Amount           string                   `json:"amount"`
	DisplayAmount    string                   `json:"display_amount"`
	Currency         currency.Info            `json:"currency"`
	SettleMode       settle.Mode              `json:"settle_mode"`
	SettleMetadata   json.RawMessage          `json:"settle_metadata" swaggertype:"object"`
	PaymentMethods   []*PaymentMethodResponse `json:"payment_methods"`
	Participants     []*ParticipantResponse   `json:"participants,omitempty"`
	RemainingBalance *string                  `json:"remaining_balance,omitempty"`
	OpenSlots        *int                     `json:"open_slots,omitempty"`
	CreatedAt        string                   `json:"created_at"`
}

// PaymentMethodResponse is a payment method with its signed QR image, when
// one could be issued
type PaymentMethodResponse struct {
	Label          string  `json:"label"`
	Type           string  `json:"type"`
	ImageURL       *string `json:"image_url,omitempty"`
	ImageExpiresAt *string `json:"image_expires_at,omitempty"`
}

// ParticipantResponse represents the response for a participant
type ParticipantResponse struct {
	ID                    string                 `json:"id"`
	Name                  string                 `json:"name"`
	Amount                string                 `json:"amount"`
	IsHost                bool                   `json:"is_host"`
	IsPaid                bool                   `json:"is_paid"`
	PaymentMethodMetadata *PaymentMethodMetadata `json:"payment_method_metadata,omitempty"`
	CreatedAt             string                 `json:"created_at"`
	UpdatedAt             string                 `json:"updated_at"`
}

// QuoteResponse represents a computed owed amount
type QuoteResponse struct {
	OwedAmount       string  `json:"owed_amount"`
	DisplayAmount    string  `json:"display_amount"`
	RemainingBalance *string `json:"remaining_balance,omitempty"`
	Editable         bool    `json:"editable"`
}

// ValidateResponse represents the outcome of a claim pre-check
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToResponse converts a Participant model to a ParticipantResponse DTO
func (p *Participant) ToResponse() *ParticipantResponse {
	return &ParticipantResponse{
		ID:                    p.ID,
		Name:                  p.Name,
		Amount:                settle.FormatAmount(p.Amount),
		IsHost:                p.IsHost,
		IsPaid:                p.IsPaid,
		PaymentMethodMetadata: p.PaymentMethodMetadata,
		CreatedAt:             p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             p.UpdatedAt.Format(time.RFC3339),
	}
}

// ToResponse converts an ExpenseView to an ExpenseResponse DTO
func (v *ExpenseView) ToResponse() *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:             v.Expense.ID,
		Title:          v.Expense.Title,
		Amount:         settle.FormatAmount(v.Expense.Amount),
		DisplayAmount:  v.Currency.Format(v.Expense.Amount),
		Currency:       v.Currency,
		SettleMode:     v.Expense.SettleMode,
		SettleMetadata: v.Expense.SettleMetadata,
		PaymentMethods: make([]*PaymentMethodResponse, 0, len(v.PaymentMethods)),
		Participants:   participantResponses(v.Participants),
		OpenSlots:      v.OpenSlots,
		CreatedAt:      v.Expense.CreatedAt.Format(time.RFC3339),
	}
	if v.RemainingBalance.Valid {
		s := settle.FormatAmount(v.RemainingBalance.Decimal)
		resp.RemainingBalance = &s
	}
	for _, pm := range v.PaymentMethods {
		r := &PaymentMethodResponse{Label: pm.Label, Type: pm.Type}
		if pm.Image != nil {
			url := pm.Image.URL
			expires := pm.Image.ExpiresAt.UTC().Format(time.RFC3339)
			r.ImageURL, r.ImageExpiresAt = &url, &expires
		}
		resp.PaymentMethods = append(resp.PaymentMethods, r)
	}
	return resp
}

func participantResponses(participants []*Participant) []*ParticipantResponse {
	out := make([]*ParticipantResponse, len(participants))
	for i, p := range participants {
		out[i] = p.ToResponse()
	}
	return out
}

func quoteResponse(q settle.Quote, info currency.Info) *QuoteResponse {
	resp := &QuoteResponse{
		OwedAmount:    settle.FormatAmount(q.OwedAmount),
		DisplayAmount: info.Format(q.OwedAmount),
		Editable:      q.Editable,
	}
	if q.RemainingBalance.Valid {
		s := settle.FormatAmount(q.RemainingBalance.Decimal)
		resp.RemainingBalance = &s
	}
	return resp
}
