package http

import (
	"errors"
	"net/http"

	"github.com/gestaozabele/identidade/internal/citizen"
)

// ProfileLookup devolve o registro completo por citizenId ou userId.
func (h *Handler) ProfileLookup(w http.ResponseWriter, r *http.Request) {
	citizenID := r.URL.Query().Get("citizenId")
	userID := r.URL.Query().Get("userId")

	record, err := h.citizens.Lookup(r.Context(), citizenID, userID)
	if err != nil {
		if errors.Is(err, citizen.ErrNotFound) {
			WriteJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
			return
		}
		WriteStatusError(w, statusForError(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "data": record})
}
