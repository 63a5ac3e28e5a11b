package models

// DayOfWeek is the categorical day feature the model was trained on.
// 1 is Monday through 7 Sunday, matching the upstream API contract.
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[DayOfWeek]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// Valid reports whether d is within the 1..7 range.
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "Unknown"
}

// Days returns all seven days in calendar order, for building selectors.
func Days() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Airport is one entry from the upstream airport list.
type Airport struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// Label is the human-readable selector text for the airport.
func (a Airport) Label() string {
	if a.City != "" && a.State != "" {
		return a.Name + " (" + a.City + ", " + a.State + ")"
	}
	return a.Name
}

// PredictionRequest is a single submission to the delay model. Immutable
// once constructed; both fields are validated before it is built.
type PredictionRequest struct {
	DayOfWeek DayOfWeek
	AirportID int
}

// PredictionResult is the normalized outcome of a successful prediction
// call. DelayProbability and OnTimeProbability are in [0,1] and should sum
// to ~1, though the upstream does not guarantee it.
type PredictionResult struct {
	DelayProbability  float64 `json:"delayProbability"`
	OnTimeProbability float64 `json:"onTimeProbability"`
	ConfidencePercent float64 `json:"confidencePercent,omitempty"`
	Interpretation    string  `json:"interpretation,omitempty"`
	EchoedDay         string  `json:"day"`
	EchoedAirport     string  `json:"airport"`
}
