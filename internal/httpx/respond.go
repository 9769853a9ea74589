// Package httpx holds the JSON response helpers shared by the handler
// packages.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mkravets/tasktracker/internal/apperr"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind    apperr.Kind       `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Count   int64             `json:"count,omitempty"`
}

// WriteError maps an error onto the wire shape
// {"error":{"kind","message","fields"?,"count"?}}. Persistence causes are
// logged server-side and never serialized.
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindPersistence {
		log.Printf("persistence error: %v", err)
	}
	WriteJSON(w, apperr.HTTPStatus(e), map[string]errorBody{
		"error": {Kind: e.Kind, Message: e.Message, Fields: e.Fields, Count: e.Count},
	})
}
