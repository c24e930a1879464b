package allowance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/rest"
	"github.com/internly/internly/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BreakdownDTO struct {
	Wfo    int `json:"wfo"`
	Wfh    int `json:"wfh"`
	Leaves int `json:"leaves"`
}

type AdjustmentDTO struct {
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	ActorId    int             `json:"actorId"`
	AdjustedAt time.Time       `json:"adjustedAt"`
}

type ClaimDTO struct {
	Id                   string          `json:"id"`
	InternId             int             `json:"internId"`
	PeriodKey            string          `json:"periodKey"`
	Breakdown            BreakdownDTO    `json:"breakdown"`
	ComputedAmount       decimal.Decimal `json:"computedAmount"`
	ResolvedAmount       decimal.Decimal `json:"resolvedAmount"`
	SupervisorAdjustment *AdjustmentDTO  `json:"supervisorAdjustment,omitempty"`
	AdminAdjustment      *AdjustmentDTO  `json:"adminAdjustment,omitempty"`

	// DecidedBy names the adjustment slot the resolved amount comes from, if any.
	DecidedBy   string    `json:"decidedBy,omitempty"`
	Status      string    `json:"status"`
	PaymentDate *string   `json:"paymentDate,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type adjustmentRequest struct {
	Amount *float64 `json:"amount"`
	Note   string   `json:"note"`
}

type paymentRequest struct {
	PaymentDate string `json:"paymentDate"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListClaims godoc
// @Summary List claims of an intern
// @Tags Allowance
// @Produce json
// @Param internId path int true "Intern ID"
// @Success 200 {array} ClaimDTO
// @Router /api/interns/{internId}/claims [get]
// @Security XUserId
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	internId, err := strconv.Atoi(mux.Vars(r)["internId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid intern id", err.Error())
		return
	}
	claims, err := h.service.ListClaims(r.Context(), internId)
	if err != nil {
		WriteError(w, err)
		return
	}
	claimsDTO := make([]ClaimDTO, 0, len(claims))
	for _, claim := range claims {
		claimsDTO = append(claimsDTO, ClaimToDTO(claim))
	}
	rest.WriteJSON(w, http.StatusOK, claimsDTO)
}

// GetClaim godoc
// @Summary Get the claim of a period
// @Description Returns the claim of the period, creating it on first request. Unpaid claims are refreshed from attendance.
// @Tags Allowance
// @Produce json
// @Param internId path int true "Intern ID"
// @Param periodKey path string true "YYYY-MM or END_OF_PROGRAM"
// @Success 200 {object} ClaimDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid period"
// @Router /api/interns/{internId}/claims/{periodKey} [get]
// @Security XUserId
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := claimIdFromRequest(w, r)
	if !ok {
		return
	}
	claim, err := h.service.GetClaim(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClaimToDTO(claim))
}

// UpsertSupervisorAdjustment godoc
// @Summary Set the supervisor adjustment of a claim
// @Tags Allowance
// @Accept json
// @Produce json
// @Param internId path int true "Intern ID"
// @Param periodKey path string true "YYYY-MM or END_OF_PROGRAM"
// @Param adjustment body object{amount=number,note=string} true "Adjustment"
// @Success 200 {object} ClaimDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid adjustment"
// @Failure 409 {object} rest.ErrorResponse "Claim already paid"
// @Router /api/interns/{internId}/claims/{periodKey}/supervisor-adjustment [put]
// @Security XUserId
func (h *Handler) UpsertSupervisorAdjustment(w http.ResponseWriter, r *http.Request) {
	h.upsertAdjustment(w, r, Supervisor)
}

// UpsertAdminAdjustment godoc
// @Summary Set the admin adjustment of a claim
// @Tags Allowance
// @Accept json
// @Produce json
// @Param internId path int true "Intern ID"
// @Param periodKey path string true "YYYY-MM or END_OF_PROGRAM"
// @Param adjustment body object{amount=number,note=string} true "Adjustment"
// @Success 200 {object} ClaimDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid adjustment"
// @Failure 409 {object} rest.ErrorResponse "Claim already paid"
// @Router /api/interns/{internId}/claims/{periodKey}/admin-adjustment [put]
// @Security XUserId
func (h *Handler) UpsertAdminAdjustment(w http.ResponseWriter, r *http.Request) {
	h.upsertAdjustment(w, r, Admin)
}

func (h *Handler) upsertAdjustment(w http.ResponseWriter, r *http.Request, actor Actor) {
	log.Debugf("Upserting %s adjustment", actor)
	id, ok := claimIdFromRequest(w, r)
	if !ok {
		return
	}
	var request adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if request.Amount == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid adjustment", "amount is required")
		return
	}

	claim, err := h.service.UpsertAdjustment(r.Context(), id, actor, *request.Amount, request.Note)
	if err != nil {
		WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClaimToDTO(claim))
}

// ApproveClaim godoc
// @Summary Approve a claim
// @Tags Allowance
// @Produce json
// @Param internId path int true "Intern ID"
// @Param periodKey path string true "YYYY-MM or END_OF_PROGRAM"
// @Success 200 {object} ClaimDTO
// @Failure 409 {object} rest.ErrorResponse "Claim already paid"
// @Router /api/interns/{internId}/claims/{periodKey}/approval [post]
// @Security XUserId
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := claimIdFromRequest(w, r)
	if !ok {
		return
	}
	claim, err := h.service.Approve(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClaimToDTO(claim))
}

// MarkPaid godoc
// @Summary Mark a claim as paid
// @Description Freezes the claim at its resolved amount.
// @Tags Allowance
// @Accept json
// @Produce json
// @Param internId path int true "Intern ID"
// @Param periodKey path string true "YYYY-MM or END_OF_PROGRAM"
// @Param payment body object{paymentDate=string} true "Payment date as YYYY-MM-DD"
// @Success 200 {object} ClaimDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid payment date"
// @Failure 409 {object} rest.ErrorResponse "Claim already paid"
// @Router /api/interns/{internId}/claims/{periodKey}/payment [post]
// @Security XUserId
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := claimIdFromRequest(w, r)
	if !ok {
		return
	}
	var request paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	paymentDate, err := time.Parse(time.DateOnly, request.PaymentDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Incorrect date format", "Payment date must be in YYYY-MM-DD format")
		return
	}

	claim, err := h.service.MarkPaid(r.Context(), id, paymentDate)
	if err != nil {
		WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClaimToDTO(claim))
}

func claimIdFromRequest(w http.ResponseWriter, r *http.Request) (ClaimId, bool) {
	vars := mux.Vars(r)
	internId, err := strconv.Atoi(vars["internId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid intern id", err.Error())
		return ClaimId{}, false
	}
	periodKey, err := ParsePeriodKey(vars["periodKey"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period", err.Error())
		return ClaimId{}, false
	}
	return ClaimId{InternId: internId, PeriodKey: periodKey}, true
}

// WriteError maps claim store and engine errors to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		rest.WriteError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
	case errors.Is(err, ErrImmutableClaim):
		rest.WriteError(w, http.StatusConflict, "Claim is paid", err.Error())
	case errors.Is(err, ErrClaimNotFound), errors.Is(err, ErrWalletNotFound), errors.Is(err, ErrSyncLockNotFound):
		rest.WriteError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		rest.WriteError(w, http.StatusServiceUnavailable, "Claim store unavailable", err.Error())
	case errors.Is(err, ErrSyncFailed):
		rest.WriteError(w, http.StatusInternalServerError, "Wallet sync failed", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ClaimToDTO(claim Claim) ClaimDTO {
	dto := ClaimDTO{
		Id:        claim.Id().String(),
		InternId:  claim.InternId,
		PeriodKey: string(claim.PeriodKey),
		Breakdown: BreakdownDTO{
			Wfo:    claim.Breakdown.Wfo,
			Wfh:    claim.Breakdown.Wfh,
			Leaves: claim.Breakdown.Leaves,
		},
		ComputedAmount:       claim.ComputedAmount,
		ResolvedAmount:       claim.ResolvedAmount,
		SupervisorAdjustment: adjustmentToDTO(claim.SupervisorAdjustment),
		AdminAdjustment:      adjustmentToDTO(claim.AdminAdjustment),
		Status:               string(claim.Status),
		UpdatedAt:            claim.UpdatedAt,
	}
	if actor, ok := WinningActor(claim); ok {
		dto.DecidedBy = string(actor)
	}
	if claim.PaymentDate != nil {
		paymentDate := claim.PaymentDate.Format(time.DateOnly)
		dto.PaymentDate = &paymentDate
	}
	return dto
}

func adjustmentToDTO(adjustment *Adjustment) *AdjustmentDTO {
	if adjustment == nil {
		return nil
	}
	return &AdjustmentDTO{
		Amount:     adjustment.Amount,
		Note:       adjustment.Note,
		ActorId:    adjustment.ActorId,
		AdjustedAt: adjustment.AdjustedAt,
	}
}
