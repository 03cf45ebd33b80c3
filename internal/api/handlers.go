package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/nook/nook/internal/docstore"
	"github.com/sirupsen/logrus"
)

const (
	maxDocumentBytes = 10 << 20
	triggerTimeout   = 30 * time.Minute
)

// DocumentStore is the document store as used by the HTTP API
type DocumentStore interface {
	Save(ctx context.Context, content, service string, date time.Time) (string, error)
	Load(ctx context.Context, service string, date time.Time) (string, bool, error)
	ListDates(ctx context.Context, service string) ([]time.Time, error)
}

// DigestService is the digest service as used by the HTTP API
type DigestService interface {
	Trigger(timeout time.Duration) bool
	GetMetrics() string
}

// Handler serves the HTTP API
type Handler struct {
	store  DocumentStore
	digest DigestService
}

// NewHandler creates a new API handler
func NewHandler(store DocumentStore, digest DigestService) *Handler {
	return &Handler{
		store:  store,
		digest: digest,
	}
}

// Router returns the routes of the API
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)
	router.HandleFunc("/trigger", h.trigger).Methods(http.MethodPost)

	docs := router.PathPrefix("/api/documents").Subrouter()
	docs.HandleFunc("/{service}", h.listDates).Methods(http.MethodGet)
	docs.HandleFunc("/{service}/{date}", h.loadDocument).Methods(http.MethodGet)
	docs.HandleFunc("/{service}/{date}", h.saveDocument).Methods(http.MethodPut)

	return router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.digest.GetMetrics()))
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	if !h.digest.Trigger(triggerTimeout) {
		logrus.Warn("Manual digest trigger rejected, a run is already in progress")
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Digest run already in progress"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Digest run triggered"})
}

func (h *Handler) listDates(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]

	dates, err := h.store.ListDates(r.Context(), service)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, date := range dates {
		formatted = append(formatted, docstore.FormatDate(date))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"dates":   formatted,
	})
}

func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := docstore.ParseDate(vars["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	content, found, err := h.store.Load(r.Context(), vars["service"], date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	w.Header().Set("Content-Type", docstore.ContentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

func (h *Handler) saveDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := docstore.ParseDate(vars["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	key, err := h.store.Save(r.Context(), string(body), vars["service"], date)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrInvalidContent) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logrus.Errorf("Document store request failed: %v", err)
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
