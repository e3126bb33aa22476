package filter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/eml"
	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// HTTPFilter exposes the analysis service over a JSON HTTP API
type HTTPFilter struct {
	service    *analyzer.Service
	parser     *eml.Parser
	history    core.HistoryRepository
	logger     *zap.Logger
	listenAddr string
	server     *http.Server
}

// NewHTTPFilter creates a new HTTP API filter. history may be nil when
// verdict history is disabled.
func NewHTTPFilter(
	service *analyzer.Service,
	parser *eml.Parser,
	history core.HistoryRepository,
	logger *zap.Logger,
	listenAddr string,
) *HTTPFilter {
	return &HTTPFilter{
		service:    service,
		parser:     parser,
		history:    history,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

type analyzeRequest struct {
	Sender         string `json:"sender"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	HTMLBody       string `json:"html_body"`
	ReportedAsSpam bool   `json:"reported_as_spam"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Start starts the HTTP server
func (f *HTTPFilter) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", f.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", f.handleAnalyze)
		r.Get("/history", f.handleHistory)
	})

	f.server = &http.Server{
		Addr:              f.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the HTTP server
func (f *HTTPFilter) Stop() error {
	if f.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return f.server.Shutdown(ctx)
	}
	return nil
}

// ProcessEmail runs one analysis; mainly used for testing or direct calls
func (f *HTTPFilter) ProcessEmail(ctx context.Context, req *analyzer.Request) (*core.EmailAnalysis, error) {
	return f.service.AnalyzeEmail(ctx, req)
}

func (f *HTTPFilter) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleAnalyze accepts either a JSON document with the parsed email fields
// or a raw RFC 5322 message (Content-Type message/rfc822).
func (f *HTTPFilter) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := f.decodeAnalyzeRequest(r)
	if err != nil {
		f.writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis, err := f.service.AnalyzeEmail(r.Context(), req)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoContent) {
			f.writeError(w, http.StatusBadRequest, err)
			return
		}
		f.logger.Error("Analysis failed", zap.Error(err))
		f.writeError(w, http.StatusInternalServerError, err)
		return
	}

	f.writeJSON(w, http.StatusOK, analysis)
}

func (f *HTTPFilter) decodeAnalyzeRequest(r *http.Request) (*analyzer.Request, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "message/rfc822") {
		email, err := f.parser.Parse(r.Body)
		if err != nil {
			return nil, err
		}
		reported, _ := strconv.ParseBool(r.URL.Query().Get("reported_as_spam"))
		return &analyzer.Request{Email: email, ReportedAsSpam: reported}, nil
	}

	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &analyzer.Request{
		Email: &core.Email{
			From:     body.Sender,
			Subject:  body.Subject,
			Body:     body.Body,
			HTMLBody: body.HTMLBody,
		},
		ReportedAsSpam: body.ReportedAsSpam,
	}, nil
}

func (f *HTTPFilter) handleHistory(w http.ResponseWriter, r *http.Request) {
	if f.history == nil {
		f.writeError(w, http.StatusNotFound, errors.New("verdict history is disabled"))
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			f.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := f.history.Recent(r.Context(), limit)
	if err != nil {
		f.logger.Error("Failed to read history", zap.Error(err))
		f.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*core.HistoryEntry{}
	}

	f.writeJSON(w, http.StatusOK, entries)
}

func (f *HTTPFilter) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (f *HTTPFilter) writeError(w http.ResponseWriter, status int, err error) {
	f.writeJSON(w, status, errorResponse{Error: err.Error()})
}
