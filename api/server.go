// Package api serves a read-only JSON view of the splitter's state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/bitfsorg/revsplit/asset"
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/revshare"
)

// Querier is the read side of the distribution engine.
type Querier interface {
	Recipients() []revshare.RevShareEntry
	ShareOf(id revshare.Address) uint64
	IsMember(id revshare.Address) bool
	TotalShares() uint64
	Owner() revshare.Address
	AssetBalance(ctx context.Context, id ledger.AssetID) (uint64, error)
	TotalReleasedFor(id ledger.AssetID) uint64
	Released(id ledger.AssetID, recipient revshare.Address) uint64
	Pending(ctx context.Context, id ledger.AssetID, recipient revshare.Address) (uint64, error)
}

// NewRouter registers every query route on a new router.
func NewRouter(q Querier) *mux.Router {
	h := &handler{q: q}
	r := mux.NewRouter()
	r.HandleFunc("/recipients", h.recipients).Methods(http.MethodGet)
	r.HandleFunc("/recipients/{address}", h.recipient).Methods(http.MethodGet)
	r.HandleFunc("/assets/{asset}/balance", h.balance).Methods(http.MethodGet)
	r.HandleFunc("/assets/{asset}/released", h.totalReleased).Methods(http.MethodGet)
	r.HandleFunc("/assets/{asset}/released/{address}", h.released).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("no such route"))
	})
	return r
}

// NewServer wraps the router with CORS, panic recovery and request logging.
func NewServer(addr string, q Querier, allowedOrigins []string) *http.Server {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{http.MethodGet}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}

	var h http.Handler = NewRouter(q)
	h = handlers.CORS(corsOptions...)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.CombinedLoggingHandler(log.Writer(), h)

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// Serve runs srv until ctx is canceled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("query API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, asset.ErrInvalidAsset), errors.Is(err, ledger.ErrInvalidAsset):
		return http.StatusNotFound
	case errors.Is(err, revshare.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
