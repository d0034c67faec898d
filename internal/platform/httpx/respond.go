// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details. Extra carries extension
// members (computed ceilings, versions, usage figures) merged into the payload.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Extra  map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the problem document.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Type != "" {
		doc["type"] = p.Type
	}
	if p.Detail != "" {
		doc["detail"] = p.Detail
	}
	for k, v := range p.Extra {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
