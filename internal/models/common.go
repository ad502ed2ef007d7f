package models

// ErrorResponse is the JSON body of every rejected HTTP request. Code is
// one of the pkg/response codes, not the HTTP status.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
