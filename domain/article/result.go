package article

import (
	"errors"
	"strings"
)

// ErrNoContent is the failure reason for pages that were retrieved but
// carried no extractable text.
var ErrNoContent = errors.New("no content")

// Result is the outcome of fetching one article: either a body (which may
// be empty) with metadata, or a failure reason.
type Result struct {
	body     string
	metadata Metadata
	err      error
}

// Succeeded creates a successful Result.
func Succeeded(body string, metadata Metadata) Result {
	return Result{
		body:     strings.TrimSpace(body),
		metadata: metadata,
	}
}

// Failed creates a failed Result. A nil reason is recorded as ErrNoContent.
func Failed(reason error) Result {
	if reason == nil {
		reason = ErrNoContent
	}
	return Result{err: reason}
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.err == nil }

// Body returns the extracted plain text; empty for failures.
func (r Result) Body() string { return r.body }

// HasContent reports whether the fetch succeeded with a non-empty body.
func (r Result) HasContent() bool { return r.err == nil && r.body != "" }

// Metadata returns the page metadata.
func (r Result) Metadata() Metadata { return r.metadata }

// Err returns the failure reason, or nil.
func (r Result) Err() error { return r.err }

// Reason returns a printable failure reason, or "" on success.
func (r Result) Reason() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Fetched pairs a candidate link with its fetch result.
type Fetched struct {
	link   Link
	result Result
}

// NewFetched creates a Fetched.
func NewFetched(link Link, result Result) Fetched {
	return Fetched{link: link, result: result}
}

// Link returns the candidate link.
func (f Fetched) Link() Link { return f.link }

// Result returns the fetch result.
func (f Fetched) Result() Result { return f.result }
