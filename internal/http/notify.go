package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Notify repassa uma notificação push pelo broker, sem lógica própria.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AppID   string `json:"appId"`
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteStatusError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	if strings.TrimSpace(payload.AppID) == "" || strings.TrimSpace(payload.UserID) == "" {
		WriteStatusError(w, http.StatusBadRequest, "appId e userId são obrigatórios")
		return
	}

	if err := h.notifier.Notify(r.Context(), payload.AppID, payload.UserID, payload.Message); err != nil {
		WriteStatusError(w, statusForError(err), err.Error())
		return
	}

	h.metrics.Notifications.Inc()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
