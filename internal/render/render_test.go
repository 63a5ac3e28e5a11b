package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pmartell/flight-delay-frontend/internal/flow"
	"github.com/pmartell/flight-delay-frontend/internal/models"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.8, "80.0%"},
		{0.2, "20.0%"},
		{0.725, "72.5%"},
		{0, "0.0%"},
		{1, "100.0%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%f) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResultView_RiskTiers(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		delay     float64
		wantLabel string
	}{
		{
			name:      "above threshold",
			delay:     0.8,
			wantLabel: "High risk",
		},
		{
			name:      "at threshold",
			delay:     0.5,
			wantLabel: "High risk",
		},
		{
			name:      "below threshold",
			delay:     0.49,
			wantLabel: "Low risk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := r.ResultView(models.PredictionResult{
				DelayProbability:  tt.delay,
				OnTimeProbability: 1 - tt.delay,
			})
			if view.RiskLabel != tt.wantLabel {
				t.Errorf("RiskLabel = %q, want %q", view.RiskLabel, tt.wantLabel)
			}
		})
	}
}

func TestResultView_Deterministic(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	view := r.ResultView(models.PredictionResult{
		DelayProbability:  0.8,
		OnTimeProbability: 0.2,
		EchoedDay:         "Monday",
		EchoedAirport:     "JFK",
	})

	if view.DelayPercent != "80.0%" {
		t.Errorf("DelayPercent = %q, want 80.0%%", view.DelayPercent)
	}
	if view.OnTimePercent != "20.0%" {
		t.Errorf("OnTimePercent = %q, want 20.0%%", view.OnTimePercent)
	}
	if view.Day != "Monday" || view.Airport != "JFK" {
		t.Errorf("echoed inputs = (%q, %q), want (Monday, JFK)", view.Day, view.Airport)
	}
	if view.RiskLabel != "High risk" {
		t.Errorf("RiskLabel = %q, want High risk", view.RiskLabel)
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		info flow.ErrorInfo
		want string
	}{
		{
			name: "explicit reason",
			info: flow.ErrorInfo{Kind: flow.ErrorNetwork, Message: "Network error: could not reach the prediction service."},
			want: "Network error: could not reach the prediction service.",
		},
		{
			name: "empty reason falls back",
			info: flow.ErrorInfo{Kind: flow.ErrorUnknown},
			want: GenericFailureMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureMessage(tt.info); got != tt.want {
				t.Errorf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPage_SuccessState(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	view := r.ResultView(models.PredictionResult{
		DelayProbability:  0.8,
		OnTimeProbability: 0.2,
		EchoedDay:         "Monday",
		EchoedAirport:     "JFK",
	})
	var buf bytes.Buffer
	err = r.Page(&buf, PageData{
		Ready:    true,
		Airports: []models.Airport{{ID: 12478, Name: "JFK"}},
		Result:   &view,
	})
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{"80.0%", "20.0%", "Monday", "JFK", "High risk"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		if !strings.Contains(html, day) {
			t.Errorf("day selector missing %q", day)
		}
	}
}

func TestPage_AirportsSortedAsGiven(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The store sorts; the template must preserve its order.
	var buf bytes.Buffer
	err = r.Page(&buf, PageData{
		Ready: true,
		Airports: []models.Airport{
			{ID: 10397, Name: "ATL"},
			{ID: 12478, Name: "JFK"},
			{ID: 13930, Name: "ORD"},
		},
	})
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	html := buf.String()
	atl := strings.Index(html, "ATL")
	jfk := strings.Index(html, "JFK")
	ord := strings.Index(html, "ORD")
	if atl < 0 || jfk < 0 || ord < 0 {
		t.Fatal("rendered page missing airport options")
	}
	if !(atl < jfk && jfk < ord) {
		t.Errorf("airports rendered out of order: ATL@%d JFK@%d ORD@%d", atl, jfk, ord)
	}
}

func TestPage_NotReadyDisablesControls(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	err = r.Page(&buf, PageData{
		Ready:            false,
		LoadErrorMessage: "connection refused",
	})
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "disabled") {
		t.Error("controls should be disabled when airports failed to load")
	}
	if !strings.Contains(html, "connection refused") {
		t.Error("load error message should be visible")
	}
}

func TestPage_FailureState(t *testing.T) {
	r, err := New(0.5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	err = r.Page(&buf, PageData{
		Ready:        true,
		ErrorMessage: FailureMessage(flow.ErrorInfo{Kind: flow.ErrorNetwork, Message: "Network error: could not reach the prediction service."}),
	})
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Network error") {
		t.Error("rendered page should contain the failure reason")
	}
}
