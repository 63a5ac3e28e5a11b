package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pmartell/flight-delay-frontend/internal/airports"
	"github.com/pmartell/flight-delay-frontend/internal/client"
	"github.com/pmartell/flight-delay-frontend/internal/models"
	"github.com/pmartell/flight-delay-frontend/internal/observability"
	"github.com/pmartell/flight-delay-frontend/internal/validation"
)

// StateKind enumerates the UI state machine: Idle until the first
// submission, Loading while a prediction is in flight, then Success or
// Failure until the next submission.
type StateKind int

const (
	Idle StateKind = iota
	Loading
	Success
	Failure
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// ErrorKind classifies a Failure for display.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNetwork
	ErrorServer
	ErrorMalformed
)

// ErrorInfo carries the user-visible reason for a Failure state.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

// State is one snapshot of the machine. Result is set for Success, Err for Failure.
type State struct {
	Kind   StateKind
	Result models.PredictionResult
	Err    ErrorInfo
}

// ErrBusy is returned when Submit is called while a prediction is in flight.
// The caller gets the current (Loading) state and no second network call happens.
var ErrBusy = errors.New("a prediction is already in flight")

// ErrAirportsUnavailable is returned when the airport list never loaded.
var ErrAirportsUnavailable = errors.New("airport list unavailable, restart the server to retry")

// ErrUnknownAirport is returned when the submitted ID is not in the loaded list.
var ErrUnknownAirport = errors.New("airport is not in the loaded airport list")

// Controller owns the application state: the UI state machine and the
// submission path. All transitions go through Submit, so they stay auditable
// and testable without a browser.
type Controller struct {
	client  client.PredictionClient
	store   *airports.Store
	logger  *zap.Logger
	timeout time.Duration

	inFlight atomic.Bool

	mu      sync.Mutex
	current State
}

func NewController(c client.PredictionClient, store *airports.Store, logger *zap.Logger, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		client:  c,
		store:   store,
		logger:  logger,
		timeout: timeout,
		current: State{Kind: Idle},
	}
}

// Current returns the state snapshot for rendering.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
}

// Submit runs one prediction round trip from raw form values.
//
// Validation failures (empty or invalid day/airport, unknown airport ID,
// airport list never loaded) return an error without touching the state
// machine or the network. A second Submit while one is in flight returns
// ErrBusy plus the Loading state. Otherwise the machine transitions to
// Loading, the client is called (POST with one GET fallback), and the
// terminal Success or Failure state is stored and returned. Submit never
// leaves the machine in Loading.
func (c *Controller) Submit(ctx context.Context, rawDay, rawAirport string) (State, error) {
	day, err := validation.ParseDay(rawDay)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues("validation").Inc()
		return c.Current(), err
	}
	airportID, err := validation.ParseAirportID(rawAirport)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues("validation").Inc()
		return c.Current(), err
	}
	if !c.store.Ready() {
		observability.SubmissionsTotal.WithLabelValues("validation").Inc()
		return c.Current(), ErrAirportsUnavailable
	}
	airport, ok := c.store.Lookup(airportID)
	if !ok {
		observability.SubmissionsTotal.WithLabelValues("validation").Inc()
		return c.Current(), ErrUnknownAirport
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		observability.SubmissionsTotal.WithLabelValues("blocked").Inc()
		return c.Current(), ErrBusy
	}
	defer c.inFlight.Store(false)

	c.setState(State{Kind: Loading})

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := models.PredictionRequest{DayOfWeek: day, AirportID: airportID}
	result, err := c.client.Predict(ctx, req)

	var terminal State
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues("failure").Inc()
		terminal = State{Kind: Failure, Err: classify(err)}
		if c.logger != nil {
			c.logger.Warn("prediction failed",
				zap.Int("day_of_week", int(day)),
				zap.Int("airport_id", airportID),
				zap.Error(err))
		}
	} else {
		if result.EchoedAirport == "" {
			result.EchoedAirport = airport.Name
		}
		observability.SubmissionsTotal.WithLabelValues("success").Inc()
		terminal = State{Kind: Success, Result: result}
		if c.logger != nil {
			c.logger.Info("prediction served",
				zap.Int("day_of_week", int(day)),
				zap.Int("airport_id", airportID),
				zap.Float64("delay_probability", result.DelayProbability))
		}
	}

	c.setState(terminal)
	return terminal, nil
}

// classify maps client errors to user-visible failure reasons.
func classify(err error) ErrorInfo {
	switch {
	case errors.Is(err, client.ErrMalformedResponse):
		return ErrorInfo{Kind: ErrorMalformed, Message: "The prediction service returned an unexpected response."}
	case errors.Is(err, client.ErrServer):
		return ErrorInfo{Kind: ErrorServer, Message: "The prediction service reported an error: " + err.Error()}
	case errors.Is(err, client.ErrNetwork):
		return ErrorInfo{Kind: ErrorNetwork, Message: "Network error: could not reach the prediction service."}
	}
	return ErrorInfo{Kind: ErrorUnknown}
}
