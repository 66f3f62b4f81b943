// Package http exposes a hangar over a JSON HTTP API with a server-sent
// event stream.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/go-chi/chi/v5"
)

// Engine defines what the API needs from a hangar. *hangar.Hangar satisfies it.
type Engine interface {
	Types() []*domain.TypeDescriptor
	Type(name string) (*domain.TypeDescriptor, error)
	List(typeName string) []domain.Instance
	Get(id domain.ID) (domain.Instance, error)
	Create(ctx context.Context, typeName string, values map[string]any, opts ...hangar.CreateOption) (domain.Instance, error)
	Update(ctx context.Context, id domain.ID, fn func(*hangar.Scope) error) error
	Destroy(ctx context.Context, id domain.ID) error
	Subscribe(mask domain.EventMask, typeFilter string, cb observer.Callback) (observer.Handle, error)
	Unsubscribe(h observer.Handle) error
}

// Server holds the HTTP handlers.
type Server struct {
	Engine Engine
	logger *slog.Logger
	buffer int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStreamBuffer sets how many events an SSE client may lag behind before
// events are dropped for it.
func WithStreamBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
		buffer: 16,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/types", s.ListTypes)
	r.Get("/types/{name}", s.GetType)
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", s.ListInstances)
		r.Post("/", s.CreateInstance)
		r.Get("/{id}", s.GetInstance)
		r.Patch("/{id}", s.PatchInstance)
		r.Delete("/{id}", s.DeleteInstance)
	})
	r.Get("/events", s.SubscribeEvents)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TypeView is the JSON form of a type descriptor.
type TypeView struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Fields      []domain.Field `json:"fields"`
}

// CreateRequest is the body of POST /instances.
type CreateRequest struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Values map[string]any `json:"values"`
}

// PatchRequest is the body of PATCH /instances/{id}. Set assigns fields, Add
// increments numeric fields. Both are applied inside one update scope.
type PatchRequest struct {
	Set map[string]any     `json:"set,omitempty"`
	Add map[string]float64 `json:"add,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "hangar-http",
		"version": strings.TrimSpace(hangar.Version),
	})
}

// ListTypes handles the GET /types request.
func (s *Server) ListTypes(w http.ResponseWriter, r *http.Request) {
	descs := s.Engine.Types()
	views := make([]TypeView, len(descs))
	for i, d := range descs {
		views[i] = typeView(d)
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetType handles the GET /types/{name} request.
func (s *Server) GetType(w http.ResponseWriter, r *http.Request) {
	desc, err := s.Engine.Type(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, typeView(desc))
}

// ListInstances handles the GET /instances request, optionally filtered by ?type=.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	typeName := r.URL.Query().Get("type")
	if typeName != "" {
		if _, err := s.Engine.Type(typeName); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, s.Engine.List(typeName))
}

// CreateInstance handles the POST /instances request. Observer failures do
// not fail the request; they are reported in the X-Observer-Failures header.
func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateInstance: Invalid request body", "error", err)
		return
	}

	inst, err := s.Engine.Create(r.Context(), body.Type, body.Values, hangar.WithName(body.Name))
	if err != nil && !reportDispatch(w, err) {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/instances/"+inst.ID.String())
	s.writeJSON(w, http.StatusCreated, inst)
}

// GetInstance handles the GET /instances/{id} request.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	inst, err := s.Engine.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inst)
}

// PatchInstance handles the PATCH /instances/{id} request. Values are checked
// against the type before the scope is opened, so a bad request changes nothing.
func (s *Server) PatchInstance(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body PatchRequest
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PatchInstance: Invalid request body", "error", err)
		return
	}

	current, err := s.Engine.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkPatch(current.Type, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.Engine.Update(r.Context(), id, func(scope *hangar.Scope) error {
		for field, v := range body.Set {
			if err := scope.Set(field, v); err != nil {
				return err
			}
		}
		for field, delta := range body.Add {
			if err := scope.Add(field, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !reportDispatch(w, err) {
		s.writeError(w, r, err)
		return
	}

	inst, err := s.Engine.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inst)
}

func (s *Server) checkPatch(typeName string, body *PatchRequest) error {
	desc, err := s.Engine.Type(typeName)
	if err != nil {
		return err
	}
	return desc.CheckChanges(body.Set, body.Add)
}

// DeleteInstance handles the DELETE /instances/{id} request.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Engine.Destroy(r.Context(), id); err != nil && !reportDispatch(w, err) {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles the GET /events request (SSE). The optional
// ?type= and ?kinds= (e.g. "define|update") parameters filter the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	mask := domain.EventAll
	if kinds := r.URL.Query().Get("kinds"); kinds != "" {
		var err error
		if mask, err = domain.ParseEventMask(kinds); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	ch := make(chan []byte, s.buffer)
	handle, err := s.Engine.Subscribe(mask, r.URL.Query().Get("type"), func(_ context.Context, ev domain.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		select {
		case ch <- data:
		default:
			// Drop message if channel is full (slow client)
			s.logger.Warn("SSE: Client buffer full, dropping event", "event", ev.Kind.String(), "id", ev.Instance.ID)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() {
		if err := s.Engine.Unsubscribe(handle); err != nil {
			s.logger.Warn("SSE: unsubscribe failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "type", r.URL.Query().Get("type"))

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func typeView(d *domain.TypeDescriptor) TypeView {
	return TypeView{Name: d.Name, Description: d.Description, Fields: d.Fields}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(v)
}

// reportDispatch records observer failures in a response header and reports
// whether err was only a dispatch failure.
func reportDispatch(w http.ResponseWriter, err error) bool {
	var dispatchErr *observer.DispatchError
	if !errors.As(err, &dispatchErr) {
		return false
	}
	w.Header().Set("X-Observer-Failures", fmt.Sprint(len(dispatchErr.Failures)))
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFieldMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrScopeAlreadyOpen), errors.Is(err, domain.ErrNameInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
