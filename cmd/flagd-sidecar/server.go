package main

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/nyxflag/flagsdk/client"
)

// server fronts one SDK client over HTTP so non-Go processes on the
// same host can evaluate features without their own poll loop.
type server struct {
	sdk       *client.Client
	rateLimit int
	origin    string
}

// evaluationRequest is the wire form of one evaluation context.
type evaluationRequest struct {
	Feature     string            `json:"feature"`
	Default     bool              `json:"default"`
	UserID      string            `json:"userId,omitempty"`
	SessionID   string            `json:"sessionId,omitempty"`
	RemoteAddr  string            `json:"remoteAddress,omitempty"`
	Environment string            `json:"environment,omitempty"`
	CurrentTime *time.Time        `json:"currentTime,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

func (r evaluationRequest) context(appName string) *client.Context {
	ctx := &client.Context{
		UserID:      r.UserID,
		SessionID:   r.SessionID,
		AppName:     appName,
		Environment: r.Environment,
		Properties:  r.Properties,
	}
	if r.RemoteAddr != "" {
		ctx.RemoteAddress = net.ParseIP(r.RemoteAddr)
	}
	if r.CurrentTime != nil {
		ctx.CurrentTime = *r.CurrentTime
	}
	return ctx
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.origin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))

		r.Get("/healthz", s.handleHealth)
		r.Get("/v1/features", s.handleFeatures)
		r.Post("/v1/evaluate", s.handleEvaluate)
		r.Post("/v1/variant", s.handleVariant)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	names := s.sdk.FeatureNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": names})
}

func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	enabled := s.sdk.IsEnabled(req.Feature, req.context(s.sdk.AppName()), req.Default)
	writeJSON(w, http.StatusOK, map[string]any{
		"feature": req.Feature,
		"enabled": enabled,
	})
}

func (s *server) handleVariant(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	variant := s.sdk.GetVariant(req.Feature, req.context(s.sdk.AppName()))
	writeJSON(w, http.StatusOK, map[string]any{
		"feature": req.Feature,
		"variant": variant,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (evaluationRequest, bool) {
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Feature == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "feature is required"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
