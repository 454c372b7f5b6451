// Package sink is a local stand-in for the delivery service's ingestion
// endpoint. It verifies signatures exactly as the service does and records
// what it accepts, which makes it a target for checking signed triggers
// without a running backend.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/hookctl/internal/config"
	"github.com/mattjoyce/hookctl/internal/signing"
	"github.com/mattjoyce/hookctl/internal/storage"
)

// listLimit caps GET /webhooks/deliveries.
const listLimit = 100

// Server represents the sink HTTP server.
type Server struct {
	config   config.SinkConfig
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics
	server   *http.Server

	subscriptions map[int64]config.SinkSubscription
}

// New creates a sink server. cfg.MaxBodyBytes must be resolved.
func New(cfg config.SinkConfig, recorder Recorder, logger *slog.Logger) *Server {
	subs := make(map[int64]config.SinkSubscription, len(cfg.Subscriptions))
	for _, sub := range cfg.Subscriptions {
		subs[sub.ID] = sub
	}

	return &Server{
		config:        cfg,
		recorder:      recorder,
		logger:        logger,
		metrics:       newMetrics(),
		subscriptions: subs,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("sink listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("sink server starting", "listen", ln.Addr().String(), "subscriptions", len(s.subscriptions))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("sink server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sink server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("sink server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/ingest/{subscriptionID}", s.handleIngest)
		r.Get("/deliveries", s.handleListDeliveries)
		r.Get("/deliveries/{deliveryID}", s.handleGetDelivery)
		r.Get("/status/{deliveryID}", s.handleGetDelivery)
	})

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads and signatures).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("sink request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleIngest applies the service's checks in order: subscription, size,
// body shape, event filter, signature.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := s.ingest(w, r)
	s.metrics.ingested.WithLabelValues(outcome).Inc()
	s.metrics.duration.Observe(time.Since(start).Seconds())
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) string {
	id, err := strconv.ParseInt(chi.URLParam(r, "subscriptionID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return outcomeInvalidBody
	}
	logger := s.logger.With("subscription_id", id)

	sub, ok := s.subscriptions[id]
	if !ok {
		s.respondError(w, http.StatusNotFound, msgSubscriptionMissing)
		return outcomeUnknownSubscription
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return outcomeError
	}
	if int64(len(body)) > s.config.MaxBodyBytes {
		s.respondError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return outcomeTooLarge
	}

	req, err := decodeIngest(body)
	if err != nil {
		logger.Debug("ingest body rejected", "error", err)
		s.respondError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return outcomeInvalidBody
	}

	eventType := ""
	if req.EventType != nil {
		eventType = *req.EventType
	}
	if len(sub.EventTypes) > 0 && (req.EventType == nil || !slices.Contains(sub.EventTypes, eventType)) {
		s.respondJSON(w, http.StatusOK, ingestResponse{Message: msgNotSubscribed})
		return outcomeNotSubscribed
	}

	header := r.Header.Get(signing.HeaderName)
	if sub.Secret != "" {
		if header == "" {
			logger.Warn("sink signature missing")
			s.respondError(w, http.StatusBadRequest, msgSignatureRequired)
			return outcomeSignatureMissing
		}
		if err := signing.Verify(req.Payload, sub.Secret, header); err != nil {
			logger.Warn("sink signature verification failed", "error", err)
			s.respondError(w, http.StatusBadRequest, msgInvalidSignature)
			return outcomeSignatureInvalid
		}
	}

	capture, err := s.recorder.Record(r.Context(), storage.Capture{
		SubscriptionID: id,
		EventType:      eventType,
		Payload:        req.Payload,
		Signature:      header,
	})
	if err != nil {
		logger.Error("failed to record capture", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return outcomeError
	}

	s.metrics.bytes.Observe(float64(len(body)))
	logger.Info("sink delivery accepted",
		"delivery_id", capture.ID,
		"capture_id", capture.CaptureID,
		"event_type", eventType,
	)
	s.respondJSON(w, http.StatusAccepted, ingestResponse{Message: msgAccepted, DeliveryID: &capture.ID})
	return outcomeAccepted
}

// decodeIngest requires a single JSON object whose payload is an object.
func decodeIngest(body []byte) (ingestRequest, error) {
	var req ingestRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errors.New("trailing data after request body")
	}

	trimmed := bytes.TrimSpace(req.Payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return req, errors.New("payload must be a JSON object")
	}
	req.Payload = trimmed
	return req, nil
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	captures, err := s.recorder.List(r.Context(), listLimit)
	if err != nil {
		s.logger.Error("failed to list captures", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	out := make([]deliveryView, 0, len(captures))
	for _, c := range captures {
		out = append(out, newDeliveryView(c, false))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "deliveryID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusNotFound, msgDeliveryMissing)
		return
	}

	c, err := s.recorder.Get(r.Context(), id)
	if errors.Is(err, storage.ErrCaptureNotFound) {
		s.respondError(w, http.StatusNotFound, msgDeliveryMissing)
		return
	}
	if err != nil {
		s.logger.Error("failed to load capture", "delivery_id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	s.respondJSON(w, http.StatusOK, newDeliveryView(c, true))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, errorResponse{Detail: detail})
}
