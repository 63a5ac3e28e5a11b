package http

import (
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pmartell/flight-delay-frontend/internal/client"
	"github.com/pmartell/flight-delay-frontend/internal/flow"
	"github.com/pmartell/flight-delay-frontend/internal/lifecycle"
	"github.com/pmartell/flight-delay-frontend/internal/models"
	"github.com/pmartell/flight-delay-frontend/internal/observability"
	"github.com/pmartell/flight-delay-frontend/internal/render"
)

//go:embed static
var staticFS embed.FS

// AirportSource is the read surface the handlers need from the airport store.
type AirportSource interface {
	Ready() bool
	LoadError() error
	All() []models.Airport
	Count() int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	controller *flow.Controller
	airports   AirportSource
	renderer   *render.Renderer
	client     client.PredictionClient
	logger     *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(controller *flow.Controller, airports AirportSource, renderer *render.Renderer, c client.PredictionClient, logger *zap.Logger) *Handler {
	return &Handler{
		controller: controller,
		airports:   airports,
		renderer:   renderer,
		client:     c,
		logger:     logger,
	}
}

// GetPage handles GET /. It renders the current application state: the form
// with the loaded airport list, and the last result or failure if any.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, h.pageData(""))
}

// PostPredict handles POST /predict, the submit action of the page.
func (h *Handler) PostPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, http.StatusBadRequest, h.pageData("Could not read the submitted form."))
		return
	}

	state, err := h.controller.Submit(r.Context(), r.PostFormValue("day"), r.PostFormValue("airport"))
	if err != nil {
		if errors.Is(err, flow.ErrBusy) {
			data := h.pageData("A prediction is already in progress. Please wait for it to finish.")
			data.Loading = true
			h.renderPage(w, http.StatusConflict, data)
			return
		}
		// Validation failure: nothing was sent to the API.
		h.renderPage(w, http.StatusBadRequest, h.pageData(capitalize(err.Error())))
		return
	}

	h.renderState(w, state)
}

// renderState renders a terminal Success or Failure state.
func (h *Handler) renderState(w http.ResponseWriter, state flow.State) {
	data := h.pageData("")
	switch state.Kind {
	case flow.Success:
		view := h.renderer.ResultView(state.Result)
		data.Result = &view
	case flow.Failure:
		data.ErrorMessage = render.FailureMessage(state.Err)
	case flow.Loading:
		data.Loading = true
	}
	h.renderPage(w, http.StatusOK, data)
}

func (h *Handler) pageData(notice string) render.PageData {
	data := render.PageData{
		Days:     render.DayOptions(),
		Ready:    h.airports.Ready(),
		Airports: h.airports.All(),
		Notice:   notice,
	}
	if err := h.airports.LoadError(); err != nil {
		data.LoadErrorMessage = err.Error()
	}
	return data
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data render.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Page(w, data); err != nil && h.logger != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}

// GetHealth handles GET /health. Degraded when the airport list never loaded
// or the prediction API is unreachable.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	if h.airports.Ready() {
		checks["airports"] = "healthy"
	} else {
		checks["airports"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if err := h.client.Ping(r.Context()); err == nil {
		checks["predictionApi"] = "healthy"
	} else {
		checks["predictionApi"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":         status,
		"service":        "flight-delay-frontend",
		"version":        "dev",
		"checks":         checks,
		"airportsLoaded": h.airports.Count(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// NewRouter wires the full route table and middleware chain.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/", h.GetPage).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS))).Methods(http.MethodGet)

	var predictHandler http.Handler = http.HandlerFunc(h.PostPredict)
	if requestTimeout > 0 {
		predictHandler = TimeoutMiddleware(requestTimeout)(predictHandler)
	}
	predictHandler = RateLimitMiddleware(limiter)(predictHandler)
	router.Handle("/predict", predictHandler).Methods(http.MethodPost)

	// CORS preflight for any path.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
	})

	return router
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
