package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Reader is the read side of the ledger served by the API.
type Reader interface {
	Get(seq uint64) (*Record, error)
	Latest() (*Record, error)
	Summary() (Summary, error)
}

// NewRouter returns the status API routes. When gatherer is nil /metrics is
// not mounted.
func NewRouter(store Reader, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		sum, err := store.Summary()
		if err != nil {
			http.Error(w, fmt.Sprintf("Database error: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, sum)
	}).Methods(http.MethodGet)

	// registered before the parameterised route so it is matched first
	router.HandleFunc("/verdicts/latest", func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Latest()
		writeRecord(w, rec, err)
	}).Methods(http.MethodGet)

	router.HandleFunc("/verdicts/{sequence}", func(w http.ResponseWriter, r *http.Request) {
		seq, err := strconv.ParseUint(mux.Vars(r)["sequence"], 10, 64)
		if err != nil {
			http.Error(w, "Invalid sequence number", http.StatusBadRequest)
			return
		}
		rec, err := store.Get(seq)
		writeRecord(w, rec, err)
	}).Methods(http.MethodGet)

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return router
}

// Serve runs handler on addr until ctx is cancelled, then shuts the server
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, timeout time.Duration, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("status API listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down status API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down status API: %w", err)
	}
	return <-errCh
}

func writeRecord(w http.ResponseWriter, rec *Record, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Verdict not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, fmt.Sprintf("Database error: %v", err), http.StatusInternalServerError)
	default:
		writeJSON(w, rec)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to generate response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
