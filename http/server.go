package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/chen893/radar"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxMessageSize bounds the body of a message request.
const MaxMessageSize = 1 << 20

// EventBuffer is the per-connection buffer of undelivered events.
const EventBuffer = 64

// DefaultHeartbeat is how often an idle event stream sends a comment line
// so that proxies keep the connection open.
const DefaultHeartbeat = 15 * time.Second

// Server exposes the message bridge over HTTP.
//
//	POST /api/messages         body is a radar.Message
//	POST /api/messages/{type}  body is the payload of a message of that type
//	GET  /api/events           server-sent events stream of broadcasts
//	GET  /healthz              liveness probe
type Server struct {
	Dispatcher radar.Dispatcher
	Events     radar.EventSource
	Logger     *slog.Logger

	// Heartbeat overrides DefaultHeartbeat when positive.
	Heartbeat time.Duration

	router chi.Router
}

// NewServer creates a Server and builds its routes.
func NewServer(dispatcher radar.Dispatcher, events radar.EventSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		Dispatcher: dispatcher,
		Events:     events,
		Logger:     logger,
		Heartbeat:  DefaultHeartbeat,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Post("/messages/{type}", s.handleTypedMessage)
		r.Get("/events", s.handleEvents)
	})
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg radar.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxMessageSize)).Decode(&msg); err != nil {
		s.writeResponse(w, r, errorResponse(radar.Errorf(radar.EINVALID, "invalid message: %v", err)))
		return
	}
	if msg.Type == "" {
		s.writeResponse(w, r, errorResponse(radar.Errorf(radar.EINVALID, "message type required")))
		return
	}
	s.writeResponse(w, r, s.Dispatcher.Request(r.Context(), msg))
}

func (s *Server) handleTypedMessage(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMessageSize))
	if err != nil {
		s.writeResponse(w, r, errorResponse(radar.Errorf(radar.EINVALID, "invalid payload: %v", err)))
		return
	}
	msg := radar.Message{Type: radar.MessageType(chi.URLParam(r, "type"))}
	if len(payload) > 0 {
		if !json.Valid(payload) {
			s.writeResponse(w, r, errorResponse(radar.Errorf(radar.EINVALID, "payload is not valid JSON")))
			return
		}
		msg.Payload = payload
	}
	s.writeResponse(w, r, s.Dispatcher.Request(r.Context(), msg))
}

// handleEvents streams broadcasts as server-sent events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := s.Events.Subscribe(EventBuffer)
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := s.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				s.Logger.Debug("event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev radar.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

func (s *Server) writeResponse(w http.ResponseWriter, r *http.Request, resp radar.Response) {
	status := http.StatusOK
	if !resp.Success {
		status = errorStatus(resp.Code)
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "type", chi.URLParam(r, "type"), "error", resp.Error, "request_id", middleware.GetReqID(r.Context()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Debug("write response", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func errorResponse(err error) radar.Response {
	return radar.Response{Success: false, Error: radar.ErrorMessage(err), Code: radar.ErrorCode(err)}
}

// errorStatus maps an error code to an HTTP status. Analysis codes
// describe a well-formed request that could not be carried out.
func errorStatus(code string) int {
	switch code {
	case radar.EINVALID:
		return http.StatusBadRequest
	case radar.EFORBIDDEN:
		return http.StatusForbidden
	case radar.ENOTFOUND:
		return http.StatusNotFound
	case radar.ECONFLICT:
		return http.StatusConflict
	case radar.EINTERNAL, "":
		return http.StatusInternalServerError
	}
	if radar.IsAnalysisCode(code) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
