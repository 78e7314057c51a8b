package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape every endpoint shares for non-2xx
// results and for data-carrying auth responses. Error is null on
// success, Data is {} on failure.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   interface{} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Error: nil})
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Data: struct{}{}, Error: msg})
}
