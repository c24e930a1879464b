package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/rest"
	"github.com/internly/internly/pkg/allowance"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type SyncResponseDTO struct {
	AlreadyRunning bool       `json:"alreadyRunning"`
	Wallet         *WalletDTO `json:"wallet,omitempty"`
}

type WalletDTO struct {
	InternId            int                    `json:"internId"`
	TotalComputedAmount decimal.Decimal        `json:"totalComputedAmount"`
	TotalResolvedAmount decimal.Decimal        `json:"totalResolvedAmount"`
	TotalPaidAmount     decimal.Decimal        `json:"totalPaidAmount"`
	TotalPendingAmount  decimal.Decimal        `json:"totalPendingAmount"`
	TotalBreakdown      allowance.BreakdownDTO `json:"totalBreakdown"`
	ClaimCount          int                    `json:"claimCount"`
	SyncedAt            time.Time              `json:"syncedAt"`
}

type SyncLockDTO struct {
	InternId     int        `json:"internId"`
	RunId        string     `json:"runId"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Sync godoc
// @Summary Rebuild the allowance wallet of an intern
// @Description Returns alreadyRunning=true without doing anything when another sync holds the intern's lock.
// @Tags Wallet
// @Produce json
// @Param internId path int true "Intern ID"
// @Success 200 {object} SyncResponseDTO
// @Failure 500 {object} rest.ErrorResponse "Sync failed"
// @Router /api/interns/{internId}/wallet/sync [post]
// @Security XUserId
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	internId, ok := internIdFromRequest(w, r)
	if !ok {
		return
	}
	log.Debugf("Wallet sync requested for intern %d", internId)
	result, err := h.service.Sync(r.Context(), internId)
	if err != nil {
		allowance.WriteError(w, err)
		return
	}
	response := SyncResponseDTO{AlreadyRunning: result.AlreadyRunning}
	if !result.AlreadyRunning {
		wallet := WalletToDTO(result.Wallet)
		response.Wallet = &wallet
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

// GetWallet godoc
// @Summary Get the allowance wallet of an intern
// @Tags Wallet
// @Produce json
// @Param internId path int true "Intern ID"
// @Success 200 {object} WalletDTO
// @Failure 404 {object} rest.ErrorResponse "Wallet was never synced"
// @Router /api/interns/{internId}/wallet [get]
// @Security XUserId
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	internId, ok := internIdFromRequest(w, r)
	if !ok {
		return
	}
	wallet, err := h.service.GetWallet(r.Context(), internId)
	if err != nil {
		allowance.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, WalletToDTO(wallet))
}

// GetSyncLock godoc
// @Summary Get the wallet sync state of an intern
// @Tags Wallet
// @Produce json
// @Param internId path int true "Intern ID"
// @Success 200 {object} SyncLockDTO
// @Failure 404 {object} rest.ErrorResponse "No sync has run yet"
// @Router /api/interns/{internId}/wallet/sync [get]
// @Security XUserId
func (h *Handler) GetSyncLock(w http.ResponseWriter, r *http.Request) {
	internId, ok := internIdFromRequest(w, r)
	if !ok {
		return
	}
	lock, err := h.service.GetSyncLock(r.Context(), internId)
	if err != nil {
		allowance.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SyncLockDTO{
		InternId:     lock.InternId,
		RunId:        lock.RunId,
		Status:       string(lock.Status),
		StartedAt:    lock.StartedAt,
		FinishedAt:   lock.FinishedAt,
		ErrorMessage: lock.ErrorMessage,
	})
}

// ReleaseStuckSync godoc
// @Summary Release a stuck wallet sync
// @Description Marks a RUNNING sync as ERROR so a new sync can start.
// @Tags Wallet
// @Param internId path int true "Intern ID"
// @Success 204
// @Failure 409 {object} rest.ErrorResponse "No sync is running"
// @Router /api/interns/{internId}/wallet/sync [delete]
// @Security XUserId
func (h *Handler) ReleaseStuckSync(w http.ResponseWriter, r *http.Request) {
	internId, ok := internIdFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.ReleaseStuckSync(r.Context(), internId); err != nil {
		if errors.Is(err, ErrNoRunningSync) {
			rest.WriteError(w, http.StatusConflict, "No running sync", err.Error())
			return
		}
		allowance.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func internIdFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	internId, err := strconv.Atoi(mux.Vars(r)["internId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid intern id", err.Error())
		return 0, false
	}
	return internId, true
}

func WalletToDTO(wallet allowance.Wallet) WalletDTO {
	return WalletDTO{
		InternId:            wallet.InternId,
		TotalComputedAmount: wallet.TotalComputedAmount,
		TotalResolvedAmount: wallet.TotalResolvedAmount,
		TotalPaidAmount:     wallet.TotalPaidAmount,
		TotalPendingAmount:  wallet.TotalPendingAmount,
		TotalBreakdown: allowance.BreakdownDTO{
			Wfo:    wallet.TotalBreakdown.Wfo,
			Wfh:    wallet.TotalBreakdown.Wfh,
			Leaves: wallet.TotalBreakdown.Leaves,
		},
		ClaimCount: wallet.ClaimCount,
		SyncedAt:   wallet.SyncedAt,
	}
}
