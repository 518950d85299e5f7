package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopower/adapters/stats/power"
	"gopower/internal/errors"
	"gopower/internal/metrics"
)

// maxBodyBytes caps request bodies; curve requests are the largest
const maxBodyBytes = 1 << 20

// Router serves stateless calculations over JSON. Nothing is persisted.
type Router struct {
	mux  *chi.Mux
	calc *power.Calculator
	dist *power.Distributions
}

// NewRouter creates the JSON API router
func NewRouter(calc *power.Calculator) *Router {
	r := &Router{
		mux:  chi.NewRouter(),
		calc: calc,
		dist: power.NewDistributions(),
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupMiddleware() {
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.Logger)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(observe)
}

func (r *Router) setupRoutes() {
	r.mux.Get("/healthz", r.handleHealth)

	r.mux.Route("/v1", func(v chi.Router) {
		v.Post("/sample-size", r.handleSampleSize)
		v.Post("/power", r.handleAchievedPower)
		v.Post("/retrodesign", r.handleRetrodesign)
		v.Post("/simulate", r.handleSimulate)
		v.Post("/curve", r.handleCurve)
	})
}

// observe records request metrics under the matched route pattern
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := ""
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveRequest("api", route, status, time.Since(start))
	})
}

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] request failed: %v", err)
	}
	writeJSON(w, status, errorBody{
		Error: err.Error(),
		Code:  errors.GetCode(err),
		Field: errors.GetField(err),
	})
}

// decode reads a JSON body, rejecting unknown fields
func decode(w http.ResponseWriter, req *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInputf("body", "invalid request body: %v", err)
	}
	return nil
}
