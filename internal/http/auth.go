package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/identidade/internal/citizen"
)

// Login autentica o usuário do app contra o broker e decide o fluxo:
// cidadão já vinculado recebe redirect, desconhecido recebe o prefill do
// formulário de registro. O trace acompanha ambas as respostas.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AppID  string `json:"appId"`
		MToken string `json:"mToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteStatusError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	result, trace, err := h.citizens.Login(r.Context(), payload.AppID, payload.MToken)
	if trace != nil {
		h.saveTrace(r.Context(), trace)
	}

	if err != nil {
		h.metrics.LoginOutcomes.WithLabelValues("error").Inc()
		body := map[string]any{"status": "error", "message": err.Error()}
		if trace != nil {
			body["debug"] = trace
		}
		WriteJSON(w, statusForError(err), body)
		return
	}

	h.metrics.LoginOutcomes.WithLabelValues(result.Status).Inc()

	body := map[string]any{"status": result.Status, "debug": trace}
	if result.Status == citizen.StatusExists {
		body["redirectUrl"] = result.RedirectURL
	} else {
		body["prefill"] = result.Prefill
	}
	WriteJSON(w, http.StatusOK, body)
}

// Register persiste o registro completo e devolve o redirect de conclusão.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AppID        string `json:"appId"`
		UserID       string `json:"userId"`
		CitizenID    string `json:"citizenId"`
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		DateOfBirth  string `json:"dateOfBirth"`
		Mobile       string `json:"mobile"`
		Email        string `json:"email"`
		Notification string `json:"notification"`
		AddressLine1 string `json:"addressLine1"`
		AddressLine2 string `json:"addressLine2"`
		Subdistrict  string `json:"subdistrict"`
		District     string `json:"district"`
		Province     string `json:"province"`
		Postcode     string `json:"postcode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteStatusError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	redirectURL, err := h.citizens.Register(r.Context(), citizen.RegistrationInput{
		AppID:        payload.AppID,
		UserID:       payload.UserID,
		CitizenID:    payload.CitizenID,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		DateOfBirth:  payload.DateOfBirth,
		Mobile:       payload.Mobile,
		Email:        payload.Email,
		Notification: payload.Notification,
		AddressLine1: payload.AddressLine1,
		AddressLine2: payload.AddressLine2,
		Subdistrict:  payload.Subdistrict,
		District:     payload.District,
		Province:     payload.Province,
		Postcode:     payload.Postcode,
	})
	if err != nil {
		WriteStatusError(w, statusForError(err), err.Error())
		return
	}

	h.metrics.Registrations.Inc()
	WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "redirectUrl": redirectURL})
}

func (h *Handler) saveTrace(ctx context.Context, trace *citizen.LoginTrace) {
	if h.traces == nil {
		return
	}
	if err := h.traces.Save(ctx, trace.TraceID, trace); err != nil {
		log.Debug().Err(err).Str("trace_id", trace.TraceID).Msg("trace não retido")
	}
}
