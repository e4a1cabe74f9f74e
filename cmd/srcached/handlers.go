package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafalgolarz/srcache"
)

func newMux(cache *srcache.Cache, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/value/{key}", handleValue(cache))
	mux.HandleFunc("GET /v1/keys", handleKeys(cache))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func handleValue(cache *srcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		v, err := cache.Get(r.Context(), key)
		switch {
		case errors.Is(err, srcache.ErrNotRegistered):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, srcache.ErrTimeout):
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Byte values (http, s3, redis, command sources) pass through
		// untouched; anything else is JSON encoded.
		if raw, ok := v.([]byte); ok {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(raw)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

func handleKeys(cache *srcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count": cache.Len(),
			"keys":  cache.Keys(),
		})
	}
}
