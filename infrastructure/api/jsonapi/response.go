// Package jsonapi provides the JSON:API error envelope used for API errors.
package jsonapi

// MediaType is the JSON:API content type.
const MediaType = "application/vnd.api+json"

// ErrorDocument is a JSON:API top-level document holding only errors.
// See: https://jsonapi.org/format/#error-objects
type ErrorDocument struct {
	Errors []Error `json:"errors"`
}

// Error represents a JSON:API error object.
type Error struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource holds references to the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// NewErrorDocument creates a document with the given errors. It never
// encodes a null errors member.
func NewErrorDocument(errs ...Error) ErrorDocument {
	if errs == nil {
		errs = []Error{}
	}
	return ErrorDocument{Errors: errs}
}
