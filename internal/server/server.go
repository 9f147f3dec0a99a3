// Package server is the terminal-local HTTP surface consumed by the
// rendering layer (a browser in kiosk mode on the display). It exposes the
// filtered three-column view, transient notices, the station category
// toggle, and the bulk status-transition action.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kitchen-display/internal/domain"
	"kitchen-display/internal/kitchen"
	"kitchen-display/internal/logger"
)

// StationConfig is the persisted category selection collaborator.
type StationConfig interface {
	Selected(ctx context.Context) ([]string, error)
	Toggle(ctx context.Context, categoryID string) (bool, error)
}

type Server struct {
	store        *kitchen.Store
	bulk         *kitchen.BulkTransitioner
	notices      *kitchen.NoticeBoard
	connectivity func() kitchen.Connectivity
	stations     StationConfig
	lg           *logger.Logger

	mu        sync.RWMutex
	selection kitchen.Selection
}

func New(store *kitchen.Store, bulk *kitchen.BulkTransitioner, notices *kitchen.NoticeBoard,
	connectivity func() kitchen.Connectivity, stations StationConfig, lg *logger.Logger) *Server {
	return &Server{
		store:        store,
		bulk:         bulk,
		notices:      notices,
		connectivity: connectivity,
		stations:     stations,
		lg:           lg,
		selection:    kitchen.Selection{},
	}
}

// LoadSelection pulls the persisted category selection into memory. Called
// once at startup; Toggle keeps the two in step afterwards.
func (s *Server) LoadSelection(ctx context.Context) error {
	ids, err := s.stations.Selected(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.selection = kitchen.NewSelection(ids)
	s.mu.Unlock()
	return nil
}

func (s *Server) Selection() kitchen.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := make(kitchen.Selection, len(s.selection))
	for id := range s.selection {
		sel[id] = struct{}{}
	}
	return sel
}

func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/view", s.handleView)
	r.Post("/api/station/categories/{categoryID}/toggle", s.handleToggle)
	r.Post("/api/orders/{orderID}/transition", s.handleTransition)
	return r
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"connectivity": s.connectivity().String(),
	})
}

type viewResponse struct {
	Connectivity string           `json:"connectivity"`
	Selection    []string         `json:"selection"`
	Columns      kitchen.Columns  `json:"columns"`
	Notices      []kitchen.Notice `json:"notices"`
}

// handleView recomputes the station view from the store on every call; the
// derived status is never cached between reads.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sel := s.Selection()
	filtered := kitchen.FilterOrders(s.store.Orders(), sel)
	writeJSON(w, http.StatusOK, viewResponse{
		Connectivity: s.connectivity().String(),
		Selection:    sel.IDs(),
		Columns:      kitchen.GroupColumns(filtered),
		Notices:      s.notices.Recent(),
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	selected, err := s.stations.Toggle(r.Context(), categoryID)
	if err != nil {
		s.lg.Error("toggle_failed", err, map[string]any{"category_id": categoryID})
		writeError(w, http.StatusInternalServerError, "could not persist selection")
		return
	}
	s.mu.Lock()
	if selected {
		s.selection[categoryID] = struct{}{}
	} else {
		delete(s.selection, categoryID)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"category_id": categoryID,
		"selected":    selected,
		"selection":   s.Selection().IDs(),
	})
}

type transitionRequest struct {
	ItemIDs []string          `json:"item_ids"`
	Status  domain.ItemStatus `json:"status"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if !domain.ValidItemStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	m, err := s.bulk.Transition(orderID, req.ItemIDs, req.Status)
	switch {
	case errors.Is(err, kitchen.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
		return
	case err != nil:
		var invalid kitchen.ErrInvalidTransition
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Accepted: the optimistic patch is already visible; truth arrives by
	// push or resync.
	writeJSON(w, http.StatusAccepted, map[string]any{"mutation_id": m.ID})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
