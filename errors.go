package factual

import (
	"github.com/helixml/factual/application/service"
	"github.com/helixml/factual/domain/sentiment"
)

// Errors returned by the client.
var (
	ErrClientClosed = service.ErrClientClosed
	ErrEmptyQuery   = service.ErrEmptyQuery
	ErrUnavailable  = sentiment.ErrUnavailable
)
