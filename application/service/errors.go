package service

import "errors"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("factual: client is closed")

// ErrEmptyQuery indicates the submitted text or URL is blank.
var ErrEmptyQuery = errors.New("query is empty")
