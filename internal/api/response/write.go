package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/battleship-go/internal/services/twopc"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Vote writes a participant reply in the shape the orchestrator expects
func Vote(w http.ResponseWriter, status int, vote string, reason string) {
	JSON(w, status, twopc.WireResponse{Status: vote, Reason: reason})
}
