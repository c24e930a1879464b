package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/internly/internly/internal/rest"
	"github.com/internly/internly/internal/utils"
	"github.com/internly/internly/pkg/allowance"
	log "github.com/sirupsen/logrus"
)

type BreakdownDTO struct {
	InternId  int    `json:"internId"`
	PeriodKey string `json:"periodKey"`
	Wfo       int    `json:"wfo"`
	Wfh       int    `json:"wfh"`
	Leaves    int    `json:"leaves"`
}

type EntryDTO struct {
	Id         int       `json:"id"`
	Date       string    `json:"date"`
	WorkMode   string    `json:"workMode"`
	RecordedAt time.Time `json:"recordedAt"`
}

type BreakdownReader interface {
	Breakdown(ctx context.Context, internId int, periodKey allowance.PeriodKey) (allowance.Breakdown, error)
}

type Handler struct {
	aggregator BreakdownReader
	repo       Repository
	clock      utils.Clock
}

func NewHandler(aggregator BreakdownReader, repo Repository, clock utils.Clock) *Handler {
	return &Handler{aggregator: aggregator, repo: repo, clock: clock}
}

// GetBreakdown godoc
// @Summary Preview attendance breakdown
// @Description Count office, home and leave days of an intern for a month (YYYY-MM) or END_OF_PROGRAM
// @Tags Attendance
// @Produce json
// @Param internId path int true "Intern ID"
// @Param period query string true "Period key"
// @Success 200 {object} BreakdownDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid period"
// @Router /api/interns/{internId}/attendance/breakdown [get]
// @Security XUserId
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	internId, err := strconv.Atoi(mux.Vars(r)["internId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid intern id", err.Error())
		return
	}
	periodKey, err := allowance.ParsePeriodKey(r.URL.Query().Get("period"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period", err.Error())
		return
	}

	breakdown, err := h.aggregator.Breakdown(r.Context(), internId, periodKey)
	if err != nil {
		if errors.Is(err, ErrInternshipNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Internship not found", err.Error())
			return
		}
		allowance.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BreakdownDTO{
		InternId:  internId,
		PeriodKey: string(periodKey),
		Wfo:       breakdown.Wfo,
		Wfh:       breakdown.Wfh,
		Leaves:    breakdown.Leaves,
	})
}

// RecordEntry godoc
// @Summary Record an attendance day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param internId path int true "Intern ID"
// @Param entry body EntryDTO true "Attendance entry, date as YYYY-MM-DD"
// @Success 201 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/interns/{internId}/attendance [post]
// @Security XUserId
func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	log.Debug("Recording attendance entry")
	internId, err := strconv.Atoi(mux.Vars(r)["internId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid intern id", err.Error())
		return
	}
	var entryDTO EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entryDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	date, err := time.Parse(time.DateOnly, entryDTO.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Incorrect date format", "Date must be in YYYY-MM-DD format")
		return
	}
	workMode := WorkMode(entryDTO.WorkMode)
	if workMode != WorkFromOffice && workMode != WorkFromHome {
		rest.WriteError(w, http.StatusBadRequest, "Unknown work mode", "Work mode must be WFO or WFH")
		return
	}

	entry, err := h.repo.StoreEntry(r.Context(), Entry{
		InternId:   internId,
		Date:       date,
		WorkMode:   workMode,
		RecordedAt: h.clock.Now(),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, EntryDTO{
		Id:         entry.Id,
		Date:       entry.Date.Format(time.DateOnly),
		WorkMode:   string(entry.WorkMode),
		RecordedAt: entry.RecordedAt,
	})
}
