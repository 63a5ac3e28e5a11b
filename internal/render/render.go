package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/pmartell/flight-delay-frontend/internal/flow"
	"github.com/pmartell/flight-delay-frontend/internal/models"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

// GenericFailureMessage is shown when a failure carries no readable reason.
const GenericFailureMessage = "Prediction failed for an unknown reason. Please try again."

// DayOption is one entry of the day-of-week selector.
type DayOption struct {
	Value int
	Name  string
}

// ResultView is the display form of a successful prediction: probabilities
// as one-decimal percentages, a qualitative risk tier, and the echoed inputs.
type ResultView struct {
	DelayPercent      string
	OnTimePercent     string
	ConfidencePercent string
	RiskLabel         string
	RiskClass         string
	Day               string
	Airport           string
	Interpretation    string
}

// PageData drives one render of the page.
type PageData struct {
	Days             []DayOption
	Airports         []models.Airport
	Ready            bool
	LoadErrorMessage string
	Loading          bool
	Result           *ResultView
	ErrorMessage     string
	Notice           string
}

// Renderer turns flow states into HTML. The risk threshold is the delay
// probability at or above which a result is labeled high risk; the upstream
// model documents delays as >15 minutes, with 0.5 the nominal cutoff.
type Renderer struct {
	tmpl      *template.Template
	threshold float64
}

func New(threshold float64) (*Renderer, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	tmpl, err := template.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl, threshold: threshold}, nil
}

// Page writes the rendered page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if data.Days == nil {
		data.Days = DayOptions()
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// ResultView builds the display form of a successful prediction.
func (r *Renderer) ResultView(res models.PredictionResult) ResultView {
	view := ResultView{
		DelayPercent:   FormatPercent(res.DelayProbability),
		OnTimePercent:  FormatPercent(res.OnTimeProbability),
		Day:            res.EchoedDay,
		Airport:        res.EchoedAirport,
		Interpretation: res.Interpretation,
	}
	if res.ConfidencePercent > 0 {
		view.ConfidencePercent = fmt.Sprintf("%.1f%%", res.ConfidencePercent)
	}
	if res.DelayProbability >= r.threshold {
		view.RiskLabel = "High risk"
		view.RiskClass = "high"
	} else {
		view.RiskLabel = "Low risk"
		view.RiskClass = "low"
	}
	return view
}

// FailureMessage returns the user-visible reason for a failure, with a
// generic fallback when the reason is empty.
func FailureMessage(info flow.ErrorInfo) string {
	if info.Message == "" {
		return GenericFailureMessage
	}
	return info.Message
}

// FormatPercent formats a probability in [0,1] as a one-decimal percentage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// DayOptions returns the seven selector entries in calendar order.
func DayOptions() []DayOption {
	days := models.Days()
	opts := make([]DayOption, 0, len(days))
	for _, d := range days {
		opts = append(opts, DayOption{Value: int(d), Name: d.String()})
	}
	return opts
}
