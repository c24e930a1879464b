package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/internly/internly/internal/rest"
	"github.com/internly/internly/pkg/allowance"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type AllowanceRulesDTO struct {
	PayoutFrequency string          `json:"payoutFrequency"`
	WfoRate         decimal.Decimal `json:"wfoRate"`
	WfhRate         decimal.Decimal `json:"wfhRate"`
	ApplyTax        bool            `json:"applyTax"`
	TaxPercent      decimal.Decimal `json:"taxPercent"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetAllowanceRules godoc
// @Summary Get allowance rules
// @Tags Settings
// @Produce json
// @Success 200 {object} AllowanceRulesDTO
// @Router /api/settings/allowance [get]
// @Security XUserId
func (h *Handler) GetAllowanceRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.GetRules(r.Context())
	if err != nil {
		if errors.Is(err, allowance.ErrStoreUnavailable) {
			rest.WriteError(w, http.StatusServiceUnavailable, "Settings store unavailable", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RulesToDTO(rules))
}

// UpdateAllowanceRules godoc
// @Summary Update allowance rules
// @Tags Settings
// @Accept json
// @Produce json
// @Param rules body AllowanceRulesDTO true "Allowance rules"
// @Success 200 {object} AllowanceRulesDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid rules"
// @Router /api/settings/allowance [put]
// @Security XUserId
func (h *Handler) UpdateAllowanceRules(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating allowance rules")
	var rulesDTO AllowanceRulesDTO
	if err := json.NewDecoder(r.Body).Decode(&rulesDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	rules, err := h.service.UpdateRules(r.Context(), DTOToRules(rulesDTO))
	if err != nil {
		switch {
		case errors.Is(err, allowance.ErrValidation):
			rest.WriteError(w, http.StatusBadRequest, "Invalid allowance rules", err.Error())
		case errors.Is(err, allowance.ErrStoreUnavailable):
			rest.WriteError(w, http.StatusServiceUnavailable, "Settings store unavailable", err.Error())
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, RulesToDTO(rules))
}

func RulesToDTO(rules allowance.Rules) AllowanceRulesDTO {
	return AllowanceRulesDTO{
		PayoutFrequency: string(rules.PayoutFrequency),
		WfoRate:         rules.WfoRate,
		WfhRate:         rules.WfhRate,
		ApplyTax:        rules.ApplyTax,
		TaxPercent:      rules.TaxPercent,
	}
}

func DTOToRules(dto AllowanceRulesDTO) allowance.Rules {
	return allowance.Rules{
		PayoutFrequency: allowance.PayoutFrequency(dto.PayoutFrequency),
		WfoRate:         dto.WfoRate,
		WfhRate:         dto.WfhRate,
		ApplyTax:        dto.ApplyTax,
		TaxPercent:      dto.TaxPercent,
	}
}
