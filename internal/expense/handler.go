package expense

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitclaim/internal/expense/settle"
	"github.com/fkhayef/splitclaim/pkg/middleware"
	"github.com/fkhayef/splitclaim/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	// Everything below is scoped to one expense and needs its secret
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret)

		r.Get("/{id}", h.GetByID)
		r.Get("/{id}/participants", h.ListParticipants)
		r.Post("/{id}/quote", h.Quote)
		r.Post("/{id}/claims/validate", h.ValidateClaim)
		r.Post("/{id}/claims", h.SubmitClaim)
	})

	return r
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense settled in HOST, PERPAX or FRIEND mode
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	e, err := h.service.CreateExpense(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.service.LoadExpense(r.Context(), e.ID, req.Secret)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, view.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its roster, balance and payment methods
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        X-Expense-Secret header string true "Expense secret"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      401 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	secret, _ := middleware.GetSecret(r.Context())

	view, err := h.service.LoadExpense(r.Context(), chi.URLParam(r, "id"), secret)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, view.ToResponse())
}

// ListParticipants handles GET /expenses/{id}/participants
// @Summary      List participants
// @Description  Get the live roster of an expense in creation order
// @Tags         participants
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        X-Expense-Secret header string true "Expense secret"
// @Success      200 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      401 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id}/participants [get]
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	secret, _ := middleware.GetSecret(r.Context())

	participants, err := h.service.GetRoster(r.Context(), chi.URLParam(r, "id"), secret)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, participantResponses(participants))
}

// Quote handles POST /expenses/{id}/quote
// @Summary      Compute owed amount
// @Description  Compute what a new joiner or selected participant owes, and the remaining balance in FRIEND mode
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        X-Expense-Secret header string true "Expense secret"
// @Param        request body QuoteRequest true "Selection and candidate amount"
// @Success      200 {object} response.APIResponse{data=QuoteResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses/{id}/quote [post]
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	secret, _ := middleware.GetSecret(r.Context())

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	q, info, err := h.service.Quote(r.Context(), chi.URLParam(r, "id"), secret, req.ParticipantID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, quoteResponse(q, info))
}

// ValidateClaim handles POST /expenses/{id}/claims/validate
// @Summary      Pre-check a claim
// @Description  Run the name and amount rules against the current roster without writing
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        X-Expense-Secret header string true "Expense secret"
// @Param        request body ClaimRequest true "Prospective claim"
// @Success      200 {object} response.APIResponse{data=ValidateResponse}
// @Router       /expenses/{id}/claims/validate [post]
func (h *Handler) ValidateClaim(w http.ResponseWriter, r *http.Request) {
	secret, _ := middleware.GetSecret(r.Context())

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	res, err := h.service.Validate(r.Context(), chi.URLParam(r, "id"), secret, req.ToClaim())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := &ValidateResponse{Valid: res.Valid()}
	if !res.Valid() {
		resp.Fields = res.Fields()
	}
	response.JSON(w, http.StatusOK, resp)
}

// SubmitClaim handles POST /expenses/{id}/claims
// @Summary      Submit a claim
// @Description  Insert a new participant or update an existing one, then return the roster read back after the write. Data is omitted when the claim was saved but the roster could not be read back.
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        X-Expense-Secret header string true "Expense secret"
// @Param        request body ClaimRequest true "Claim"
// @Success      200 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      401 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/{id}/claims [post]
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	secret, _ := middleware.GetSecret(r.Context())

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	participants, err := h.service.SubmitClaim(r.Context(), chi.URLParam(r, "id"), secret, req.ToClaim())
	if err != nil {
		writeError(w, err)
		return
	}
	if participants == nil {
		// Saved, but the roster could not be read back
		response.JSON(w, http.StatusOK, nil)
		return
	}

	response.JSON(w, http.StatusOK, participantResponses(participants))
}

// writeError maps service errors onto the response envelope
func writeError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		response.ValidationFailed(w, "Claim rejected", vErr.Result.Fields())
	case errors.Is(err, ErrInvalidExpense):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrAccessDenied):
		response.Unauthorized(w, MsgAccessDenied)
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, MsgAccessDenied)
	case errors.Is(err, ErrParticipantNotFound):
		response.NotFound(w, MsgParticipantGone)
	case errors.Is(err, ErrDuplicateName):
		response.Conflict(w, settle.MsgNameTaken)
	case settle.IsConfigurationError(err):
		response.ConfigurationError(w, "Expense settle configuration is invalid")
	case errors.Is(err, settle.ErrSelectionRequired),
		errors.Is(err, settle.ErrParticipantUnknown),
		errors.Is(err, settle.ErrInvalidAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
