// Package v1 implements the version 1 HTTP API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/factual/application/service"
	"github.com/helixml/factual/domain/match"
	"github.com/helixml/factual/infrastructure/api/middleware"
	"github.com/helixml/factual/infrastructure/api/v1/dto"
)

// maxRequestBytes bounds request bodies.
const maxRequestBytes = 1 << 20

// Matcher ranks articles for a query.
type Matcher interface {
	Check(ctx context.Context, raw string) (match.Ranked, error)
	Analyze(ctx context.Context, raw string) (service.Analysis, error)
}

// MatchRouter handles the match and analyze endpoints.
type MatchRouter struct {
	matcher Matcher
	logger  *slog.Logger
}

// NewMatchRouter creates a new MatchRouter.
func NewMatchRouter(matcher Matcher, logger *slog.Logger) *MatchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchRouter{matcher: matcher, logger: logger}
}

// Routes returns the chi router for the match endpoint.
func (r *MatchRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Match)
	return router
}

// Match handles POST /api/v1/match.
//
//	@Summary		Rank related articles
//	@Description	Search for articles related to a claim or article URL and rank them by similarity and sentiment agreement
//	@Tags			match
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.MatchRequest	true	"Claim text or article URL"
//	@Success		200		{array}		dto.MatchRecord
//	@Failure		400		{object}	jsonapi.ErrorDocument
//	@Failure		503		{object}	jsonapi.ErrorDocument
//	@Router			/match [post]
func (r *MatchRouter) Match(w http.ResponseWriter, req *http.Request) {
	var body dto.MatchRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	query, ok := body.Query()
	if !ok {
		middleware.WriteError(w, req, middleware.NewValidationError(`field "text/URL" is required`), r.logger)
		return
	}

	ranked, err := r.matcher.Check(req.Context(), query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewMatchRecords(ranked))
}

// Analyze handles POST /api/v1/analyze.
//
//	@Summary		Analyze sentiment and rank related articles
//	@Tags			match
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.AnalyzeRequest	true	"Claim text"
//	@Success		200		{object}	dto.AnalyzeResponse
//	@Failure		400		{object}	jsonapi.ErrorDocument
//	@Failure		503		{object}	jsonapi.ErrorDocument
//	@Router			/analyze [post]
func (r *MatchRouter) Analyze(w http.ResponseWriter, req *http.Request) {
	var body dto.AnalyzeRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.Text == nil {
		middleware.WriteError(w, req, middleware.NewValidationError(`field "text" is required`), r.logger)
		return
	}

	analysis, err := r.matcher.Analyze(req.Context(), *body.Text)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.AnalyzeResponse{
		SentimentAnalysis: dto.SentimentAnalysis{Positive: analysis.Positive()},
		FactCheckMatches:  dto.NewMatchRecords(analysis.Matches()),
		Text:              analysis.Text(),
	})
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return middleware.NewAPIError(http.StatusRequestEntityTooLarge, "request body too large", err)
		}
		return middleware.NewValidationError("malformed JSON body")
	}
	return nil
}
