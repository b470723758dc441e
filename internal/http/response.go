package http

import (
	"encoding/json"
	"net/http"
)

// As respostas seguem o contrato status-tagged consumido pelo app móvel:
// {"status": "...", ...} no nível raiz, sem envelope adicional.

// WriteJSON escreve o corpo como JSON com o status HTTP informado.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteStatusError escreve a resposta de erro padrão {status, message}.
func WriteStatusError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{"status": "error", "message": message})
}
