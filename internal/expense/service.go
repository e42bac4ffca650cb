package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fkhayef/splitclaim/internal/currency"
	"github.com/fkhayef/splitclaim/internal/expense/settle"
	"github.com/fkhayef/splitclaim/internal/media"
	"github.com/fkhayef/splitclaim/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Common errors
var (
	ErrNotFound            = errors.New("expense not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateName       = errors.New("name already claimed")
	ErrBudgetExceeded      = errors.New("claims would exceed the expense amount")
	ErrRosterFull          = errors.New("all spots have been claimed")
	ErrInvalidExpense      = errors.New("invalid expense")
	ErrSubmitInFlight      = errors.New("a submit is already in flight")
	ErrInvalidTransition   = errors.New("invalid claim session transition")
)

// Messages placed in the generic field when a write is rejected.
const (
	MsgAccessDenied    = "Access denied or record not found"
	MsgBudgetExceeded  = "The total claimed would exceed the expense amount"
	MsgParticipantGone = "This participant no longer exists"
	MsgSaveFailed      = "Could not save your claim. Please try again"
)

const (
	defaultHostName = "Host"

	outcomeSuccess      = "success"
	outcomeInvalid      = "invalid"
	outcomeRejected     = "rejected"
	outcomeAccessDenied = "access_denied"
)

// IsAccessError reports whether err means the secret was wrong or the
// expense does not exist.
func IsAccessError(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrNotFound)
}

// ValidationError carries field-scoped messages. Err is the store rejection
// behind a generic message, nil for a failed pre-check.
type ValidationError struct {
	Result settle.Result
	Err    error
}

func (e *ValidationError) Error() string {
	fields := e.Result.Failed()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e.Result.Message(f))
	}
	msg := "claim rejected: " + strings.Join(parts, "; ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Store is the persistence collaborator. Repository implements it.
type Store interface {
	CreateExpense(ctx context.Context, e *Expense, secretHash []byte, participants []*Participant) error
	GetExpense(ctx context.Context, id, secret string) (*Expense, error)
	ListParticipants(ctx context.Context, expenseID, secret string) ([]*Participant, error)
	InsertParticipant(ctx context.Context, expenseID, secret, id string, f ParticipantFields, g Guard) error
	UpdateParticipant(ctx context.Context, expenseID, secret, participantID string, f ParticipantFields, g Guard) error
}

// ImageSigner issues short-lived URLs for payment QR images.
type ImageSigner interface {
	SignedImageURL(ctx context.Context, key string) (media.SignedURL, error)
}

// Option configures a Service
type Option func(*Service)

// WithImageSigner enables signed QR image URLs in LoadExpense.
func WithImageSigner(signer ImageSigner) Option {
	return func(s *Service) { s.signer = signer }
}

// WithMetrics records claim outcomes.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service reconciles claims against an expense
type Service struct {
	store   Store
	factory *settle.Factory // Factory pattern for creating settle strategies
	signer  ImageSigner
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, factory *settle.Factory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveSettleMetadata decodes the metadata of e for its settle mode. A
// failure is a configuration error in the stored expense.
func (s *Service) ResolveSettleMetadata(e *Expense) (settle.Metadata, error) {
	md, err := e.Metadata()
	if err != nil {
		s.logger.Error("expense has unusable settle metadata",
			"expense_id", e.ID, "mode", e.SettleMode, "error", err)
		return nil, err
	}
	return md, nil
}

// ComputeOwedAmount quotes sel against the expense. A nil sel stands for a
// new joiner.
func (s *Service) ComputeOwedAmount(e *Expense, md settle.Metadata, roster settle.Roster, sel *settle.Entry, candidate string) (settle.Quote, error) {
	q, err := settle.ComputeOwedAmount(e.SettleMode, e.Amount, md, roster, sel, candidate)
	if errors.Is(err, settle.ErrSelectionRequired) {
		s.logger.Warn("owed amount requested without a selected participant",
			"expense_id", e.ID, "mode", e.SettleMode)
	}
	return q, err
}

// ValidateClaim runs the field rules for in against roster.
func (s *Service) ValidateClaim(md settle.Metadata, in settle.ClaimInput, roster settle.Roster) settle.Result {
	return settle.Validate(md, in, roster)
}

// CreateExpense records a new expense together with the host's own row and,
// in HOST mode, one row per pre-assigned member.
func (s *Service) CreateExpense(ctx context.Context, req *CreateExpenseRequest) (*Expense, error) {
	amount, err := settle.ParseAmount(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidExpense, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}

	info, err := currency.Lookup(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}

	mode, err := settle.ParseMode(req.SettleMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}
	md, err := settle.Resolve(mode, req.SettleMetadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}
	hostPortion, _ := md.Base().HostPortionAmount()
	if hostPortion.GreaterThan(amount) {
		return nil, fmt.Errorf("%w: hostPortion exceeds amount", ErrInvalidExpense)
	}

	if strings.TrimSpace(req.Secret) == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidExpense)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	e := &Expense{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Amount:         amount,
		Currency:       info.Code,
		SettleMode:     mode,
		SettleMetadata: req.SettleMetadata,
		PaymentMethods: req.PaymentMethods,
	}

	hostName := strings.TrimSpace(req.HostName)
	if hostName == "" {
		hostName = defaultHostName
	}
	participants := []*Participant{{
		ID:     uuid.NewString(),
		Name:   hostName,
		Amount: hostPortion,
		IsHost: true,
		IsPaid: true,
	}}
	if hm, ok := md.(settle.HostMetadata); ok {
		participants = append(participants, hostMembers(hm)...)
	}

	if err := s.store.CreateExpense(ctx, e, hash, participants); err != nil {
		return nil, err
	}

	s.logger.Info("expense created", "expense_id", e.ID, "mode", e.SettleMode, "participants", len(participants))
	return e, nil
}

// hostMembers builds the pre-assigned rows in metadata member order.
func hostMembers(hm settle.HostMetadata) []*Participant {
	out := make([]*Participant, 0, len(hm.Members))
	for _, name := range hm.Members {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		amount, _ := hm.AmountFor(name)
		out = append(out, &Participant{
			ID:     uuid.NewString(),
			Name:   name,
			Amount: amount,
		})
	}
	return out
}

// ExpenseView is everything a client needs to render an expense.
type ExpenseView struct {
	Expense      *Expense
	Metadata     settle.Metadata
	Participants []*Participant
	Currency     currency.Info
	// RemainingBalance is set in FRIEND mode.
	RemainingBalance decimal.NullDecimal
	// OpenSlots is set in PERPAX mode.
	OpenSlots      *int
	PaymentMethods []PaymentMethodView
}

// PaymentMethodView is a payment method with its signed image, if any.
type PaymentMethodView struct {
	PaymentMethod
	Image *media.SignedURL
}

// Roster returns the participants as the engine sees them.
func (v *ExpenseView) Roster() settle.Roster {
	return toRoster(v.Participants)
}

// LoadExpense reads the expense and its roster. Image signing failures only
// drop the image.
func (s *Service) LoadExpense(ctx context.Context, id, secret string) (*ExpenseView, error) {
	e, md, participants, err := s.load(ctx, id, secret)
	if err != nil {
		return nil, err
	}

	view := &ExpenseView{
		Expense:      e,
		Metadata:     md,
		Participants: participants,
		Currency:     currency.LookupOrDefault(e.Currency),
	}

	strategy, err := s.factory.Create(e.Amount, md)
	if err != nil {
		return nil, err
	}
	roster := toRoster(participants)
	switch st := strategy.(type) {
	case *settle.FriendStrategy:
		view.RemainingBalance = decimal.NewNullDecimal(st.Remaining(roster))
	case *settle.PerPaxStrategy:
		open := st.OpenSlots(roster)
		view.OpenSlots = &open
	}

	view.PaymentMethods = make([]PaymentMethodView, len(e.PaymentMethods))
	for i, pm := range e.PaymentMethods {
		view.PaymentMethods[i] = PaymentMethodView{PaymentMethod: pm}
		if pm.ImageKey == "" || s.signer == nil {
			continue
		}
		signed, err := s.signer.SignedImageURL(ctx, pm.ImageKey)
		if err != nil {
			s.metrics.ImageSignFailed()
			s.logger.Warn("payment image omitted", "expense_id", e.ID, "label", pm.Label, "error", err)
			continue
		}
		view.PaymentMethods[i].Image = &signed
	}

	return view, nil
}

// GetRoster returns the live participants of an expense.
func (s *Service) GetRoster(ctx context.Context, expenseID, secret string) ([]*Participant, error) {
	if err := checkID(expenseID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, expenseID, secret)
}

// Quote computes the owed amount for participantID (empty for a new joiner)
// with the given candidate amount.
func (s *Service) Quote(ctx context.Context, expenseID, secret, participantID, candidate string) (settle.Quote, currency.Info, error) {
	e, md, participants, err := s.load(ctx, expenseID, secret)
	if err != nil {
		return settle.Quote{}, currency.Info{}, err
	}
	roster := toRoster(participants)
	sel, err := selectEntry(roster, participantID)
	if err != nil {
		return settle.Quote{}, currency.Info{}, err
	}
	q, err := s.ComputeOwedAmount(e, md, roster, sel, candidate)
	if err != nil {
		return settle.Quote{}, currency.Info{}, err
	}
	return q, currency.LookupOrDefault(e.Currency), nil
}

// Validate pre-checks c against the current roster without writing.
func (s *Service) Validate(ctx context.Context, expenseID, secret string, c Claim) (settle.Result, error) {
	_, md, participants, err := s.load(ctx, expenseID, secret)
	if err != nil {
		return settle.Result{}, err
	}
	return s.ValidateClaim(md, claimInput(c), toRoster(participants)), nil
}

// SubmitClaim validates c against a fresh roster, performs exactly one insert
// or update, and returns the roster read back after the write. Access errors
// are returned as is; any other store rejection comes back as a
// *ValidationError with the generic field set and nothing written. A nil
// roster with a nil error means the claim was saved but the read back failed;
// callers re-fetch the roster.
func (s *Service) SubmitClaim(ctx context.Context, expenseID, secret string, c Claim) ([]*Participant, error) {
	e, md, participants, err := s.load(ctx, expenseID, secret)
	if err != nil {
		return nil, err
	}
	mode := string(e.SettleMode)
	roster := toRoster(participants)

	sel, err := selectEntry(roster, c.ParticipantID)
	if err != nil {
		s.metrics.ClaimSubmitted(mode, outcomeInvalid)
		return nil, &ValidationError{Result: genericResult(err), Err: err}
	}

	res := s.ValidateClaim(md, claimInput(c), roster)
	if !res.Valid() {
		for _, f := range res.Failed() {
			s.metrics.ValidationFailed(string(f))
		}
		s.metrics.ClaimSubmitted(mode, outcomeInvalid)
		return nil, &ValidationError{Result: res}
	}

	q, err := s.ComputeOwedAmount(e, md, roster, sel, c.Amount)
	if err != nil {
		s.metrics.ClaimSubmitted(mode, outcomeInvalid)
		return nil, &ValidationError{Result: genericResult(err), Err: err}
	}

	fields := ParticipantFields{
		Name:                  strings.TrimSpace(c.Name),
		Amount:                q.OwedAmount,
		IsPaid:                c.MarkAsPaid,
		PaymentMethodMetadata: c.PaymentMethodMetadata,
	}
	// Host-assigned names are fixed.
	if sel != nil && e.SettleMode == settle.ModeHost {
		fields.Name = sel.Name
	}
	guard := guardFor(e, md)

	participantID := c.ParticipantID
	if sel != nil {
		err = s.store.UpdateParticipant(ctx, e.ID, secret, sel.ID, fields, guard)
	} else {
		participantID = uuid.NewString()
		err = s.store.InsertParticipant(ctx, e.ID, secret, participantID, fields, guard)
	}
	if err != nil {
		if IsAccessError(err) {
			s.metrics.ClaimSubmitted(mode, outcomeAccessDenied)
			return nil, err
		}
		s.metrics.ClaimSubmitted(mode, outcomeRejected)
		s.logger.Warn("claim write rejected",
			"expense_id", e.ID, "participant_id", participantID, "mode", mode, "error", err)
		return nil, &ValidationError{Result: genericResult(err), Err: err}
	}

	s.metrics.ClaimSubmitted(mode, outcomeSuccess)
	s.logger.Info("claim saved",
		"expense_id", e.ID, "participant_id", participantID, "mode", mode, "amount", settle.FormatAmount(fields.Amount))

	after, err := s.store.ListParticipants(ctx, e.ID, secret)
	if err != nil {
		s.logger.Warn("roster read back failed after saved claim",
			"expense_id", e.ID, "participant_id", participantID, "error", err)
		return nil, nil
	}
	return after, nil
}

func (s *Service) load(ctx context.Context, id, secret string) (*Expense, settle.Metadata, []*Participant, error) {
	if err := checkID(id); err != nil {
		return nil, nil, nil, err
	}
	e, err := s.store.GetExpense(ctx, id, secret)
	if err != nil {
		return nil, nil, nil, err
	}
	md, err := s.ResolveSettleMetadata(e)
	if err != nil {
		return nil, nil, nil, err
	}
	participants, err := s.store.ListParticipants(ctx, id, secret)
	if err != nil {
		return nil, nil, nil, err
	}
	return e, md, participants, nil
}

// checkID rejects ids that cannot name any row.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}

func selectEntry(roster settle.Roster, participantID string) (*settle.Entry, error) {
	if participantID == "" {
		return nil, nil
	}
	e, ok := roster.Find(participantID)
	if !ok || e.IsHost {
		return nil, ErrParticipantNotFound
	}
	return &e, nil
}

func claimInput(c Claim) settle.ClaimInput {
	return settle.ClaimInput{
		ParticipantID: c.ParticipantID,
		Name:          c.Name,
		Amount:        c.Amount,
	}
}

// genericResult maps a write failure onto the generic field.
func genericResult(err error) settle.Result {
	var msg string
	switch {
	case errors.Is(err, ErrDuplicateName):
		msg = settle.MsgNameTaken
	case errors.Is(err, ErrBudgetExceeded):
		msg = MsgBudgetExceeded
	case errors.Is(err, ErrRosterFull):
		msg = settle.MsgRosterFull
	case errors.Is(err, ErrParticipantNotFound):
		msg = MsgParticipantGone
	case IsAccessError(err):
		msg = MsgAccessDenied
	case errors.Is(err, settle.ErrAmountOutOfRange):
		msg = settle.MsgAmountTooLarge
	case errors.Is(err, settle.ErrInvalidAmount), errors.Is(err, settle.ErrAmountRequired):
		msg = settle.MsgAmountNotNumber
	case errors.Is(err, settle.ErrSelectionRequired), errors.Is(err, settle.ErrParticipantUnknown):
		msg = settle.MsgSelectParticipant
	default:
		msg = MsgSaveFailed
	}
	return settle.Result{}.With(settle.FieldGeneric, msg)
}
