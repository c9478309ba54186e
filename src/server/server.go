package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"perpgate/src/adapter"
	"perpgate/src/model"
)

// StartServer serves the health endpoint plus a small public
// market-data surface backed by credential-free adapters. Blocks until
// SIGINT or SIGTERM, then shuts down gracefully.
func StartServer(port string, factory *adapter.Factory) {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})

	r.Get("/{exchange}/assets", func(w http.ResponseWriter, req *http.Request) {
		withPublicAdapter(w, req, factory, func(ctx context.Context, ad adapter.Adapter) (interface{}, error) {
			return ad.GetAssets(ctx)
		})
	})

	r.Get("/{exchange}/ticker/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		withPublicAdapter(w, req, factory, func(ctx context.Context, ad adapter.Adapter) (interface{}, error) {
			return ad.GetTicker(ctx, chi.URLParam(req, "symbol"))
		})
	})

	r.Get("/{exchange}/orderbook/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		depth, _ := strconv.Atoi(req.URL.Query().Get("depth"))
		withPublicAdapter(w, req, factory, func(ctx context.Context, ad adapter.Adapter) (interface{}, error) {
			return ad.GetOrderbook(ctx, chi.URLParam(req, "symbol"), depth)
		})
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

func withPublicAdapter(w http.ResponseWriter, req *http.Request, factory *adapter.Factory, fn func(context.Context, adapter.Adapter) (interface{}, error)) {
	ad, err := factory.Public(chi.URLParam(req, "exchange"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := fn(req.Context(), ad)
	if err != nil {
		writeAdapterError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

func writeAdapterError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		authErr       *model.AuthError
		rejectionErr  *model.ExchangeRejectionError
		networkErr    *model.NetworkError
	)
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &authErr):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.As(err, &rejectionErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &networkErr):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
