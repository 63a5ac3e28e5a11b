package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pmartell/flight-delay-frontend/internal/models"
	"github.com/pmartell/flight-delay-frontend/internal/observability"
)

// PredictionClient wraps calls to the remote flight delay prediction API.
type PredictionClient interface {
	Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)
	ListAirports(ctx context.Context) ([]models.Airport, error)
	Ping(ctx context.Context) error
}

var (
	ErrInvalidBaseURL    = errors.New("invalid prediction API URL")
	ErrNetwork           = errors.New("prediction API unreachable")
	ErrServer            = errors.New("prediction API error")
	ErrMalformedResponse = errors.New("malformed prediction API response")
)

// HTTPPredictionClient calls the prediction API over HTTP. Predict attempts
// POST first and falls back to exactly one GET with the same parameters as a
// query string. No retries beyond that single fallback.
type HTTPPredictionClient struct {
	baseURL *url.URL
	timeout time.Duration
	client  *http.Client
}

func NewHTTPPredictionClient(baseURL string, timeout time.Duration) (*HTTPPredictionClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidBaseURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidBaseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPPredictionClient{
		baseURL: u,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// predictRequestBody is the POST body shape the upstream Flask API expects.
type predictRequestBody struct {
	DayOfWeek int `json:"day_of_week"`
	AirportID int `json:"airport_id"`
}

// predictResponse covers both upstream response variants: the rich shape
// (delay_probability, no_delay_probability, input, interpretation) and the
// minimal shape (delay, certainty). Pointer fields distinguish absent from zero.
type predictResponse struct {
	DelayProbability   *float64 `json:"delay_probability"`
	NoDelayProbability *float64 `json:"no_delay_probability"`
	ConfidencePercent  float64  `json:"confidence_percent"`

	Delay     *float64 `json:"delay"`
	Certainty *float64 `json:"certainty"`

	Input struct {
		DayName     string `json:"day_name"`
		AirportName string `json:"airport_name"`
	} `json:"input"`
	Interpretation struct {
		Message string `json:"message"`
	} `json:"interpretation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Predict submits the request via POST and, if that attempt fails for any
// reason, retries once via GET. The error from the GET attempt wins when both
// fail; callers can distinguish kinds with errors.Is against the sentinels.
func (c *HTTPPredictionClient) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	result, postErr := c.predictPOST(ctx, req)
	if postErr == nil {
		return result, nil
	}
	if errors.Is(postErr, ErrMalformedResponse) {
		// The call itself succeeded; a garbled body is terminal, not a
		// reason to retry with a different verb.
		return models.PredictionResult{}, postErr
	}

	observability.PredictionFallbacksTotal.Inc()
	result, getErr := c.predictGET(ctx, req)
	if getErr == nil {
		return result, nil
	}
	return models.PredictionResult{}, fmt.Errorf("POST then GET both failed (POST: %v): %w", postErr, getErr)
}

func (c *HTTPPredictionClient) predictPOST(ctx context.Context, preq models.PredictionRequest) (models.PredictionResult, error) {
	body, err := json.Marshal(predictRequestBody{
		DayOfWeek: int(preq.DayOfWeek),
		AirportID: preq.AirportID,
	})
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("encode request: %w", err)
	}

	u := c.endpoint("/predict")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.doPredict(req, preq)
}

func (c *HTTPPredictionClient) predictGET(ctx context.Context, preq models.PredictionRequest) (models.PredictionResult, error) {
	u, err := url.Parse(c.endpoint("/predict"))
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	params := url.Values{}
	params.Set("day_of_week", strconv.Itoa(int(preq.DayOfWeek)))
	params.Set("airport_id", strconv.Itoa(preq.AirportID))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.doPredict(req, preq)
}

// doPredict executes one prediction attempt and normalizes the outcome.
func (c *HTTPPredictionClient) doPredict(req *http.Request, preq models.PredictionRequest) (models.PredictionResult, error) {
	method := req.Method
	start := time.Now()

	if corrID := extractCorrelationID(req.Context()); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()
	observability.PredictionAPIDuration.WithLabelValues(method).Observe(duration)
	if err != nil {
		observability.PredictionAPICallsTotal.WithLabelValues(method, "network_error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.PredictionResult{}, fmt.Errorf("%w: request timed out", ErrNetwork)
		}
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.PredictionAPICallsTotal.WithLabelValues(method, "network_error").Inc()
		return models.PredictionResult{}, fmt.Errorf("%w: read response body: %v", ErrNetwork, err)
	}

	observability.PredictionAPICallsTotal.WithLabelValues(method, statusLabel(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return models.PredictionResult{}, fmt.Errorf("%w: HTTP %d: %s", ErrServer, resp.StatusCode, apiErr.Error)
		}
		return models.PredictionResult{}, fmt.Errorf("%w: HTTP %d", ErrServer, resp.StatusCode)
	}

	var apiResp predictResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return mapPredictResponse(apiResp, preq)
}

// mapPredictResponse normalizes either upstream response variant into a
// PredictionResult. A response missing the delay probability, or carrying one
// outside [0,1], is malformed.
func mapPredictResponse(apiResp predictResponse, preq models.PredictionRequest) (models.PredictionResult, error) {
	var delay, onTime float64
	switch {
	case apiResp.DelayProbability != nil:
		delay = *apiResp.DelayProbability
		if apiResp.NoDelayProbability != nil {
			onTime = *apiResp.NoDelayProbability
		} else {
			onTime = 1 - delay
		}
	case apiResp.Delay != nil:
		delay = *apiResp.Delay
		if apiResp.Certainty != nil {
			onTime = *apiResp.Certainty
		} else {
			onTime = 1 - delay
		}
	default:
		return models.PredictionResult{}, fmt.Errorf("%w: missing delay probability", ErrMalformedResponse)
	}

	if delay < 0 || delay > 1 || onTime < 0 || onTime > 1 {
		return models.PredictionResult{}, fmt.Errorf("%w: probability out of range", ErrMalformedResponse)
	}

	echoedDay := apiResp.Input.DayName
	if echoedDay == "" {
		echoedDay = preq.DayOfWeek.String()
	}

	return models.PredictionResult{
		DelayProbability:  delay,
		OnTimeProbability: onTime,
		ConfidencePercent: apiResp.ConfidencePercent,
		Interpretation:    apiResp.Interpretation.Message,
		EchoedDay:         echoedDay,
		EchoedAirport:     apiResp.Input.AirportName,
	}, nil
}

// airportsResponse is the rich /airports shape; a bare JSON array is also accepted.
type airportsResponse struct {
	Airports []models.Airport `json:"airports"`
}

// ListAirports fetches the airport list. Ordering is whatever the upstream
// returns; the airports store owns sorting and deduplication.
func (c *HTTPPredictionClient) ListAirports(ctx context.Context) ([]models.Airport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/airports"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrServer, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrNetwork, err)
	}

	var wrapped airportsResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Airports != nil {
		return wrapped.Airports, nil
	}
	var bare []models.Airport
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("%w: unrecognized airports payload", ErrMalformedResponse)
}

// Ping checks API reachability via the upstream health endpoint.
func (c *HTTPPredictionClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/health"), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrServer, resp.StatusCode)
	}
	return nil
}

func (c *HTTPPredictionClient) endpoint(path string) string {
	u := *c.baseURL
	u.Path = path
	return u.String()
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
