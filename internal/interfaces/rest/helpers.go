package rest

import (
	"net/http"
)

// APIResponse is the envelope of every client API success response.
type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func RespondData(w http.ResponseWriter, statusCode int, data any) {
	RespondJSON(w, statusCode, APIResponse{Success: true, Data: data})
}
