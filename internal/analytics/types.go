package analytics

import "time"

// KPISample is one aggregated measurement window for a branch. Samples are
// immutable once received.
type KPISample struct {
	TrafficIndex    float64   `json:"traffic_index"`
	ConversionProxy float64   `json:"conversion_proxy"`
	CongestionLevel float64   `json:"congestion_level"`
	TimeWindowStart time.Time `json:"time_window_start"`
}

// Situation is the analytics service's current classification of a branch's
// operating state. It is replaced wholesale on every poll, never merged.
type Situation struct {
	Situation string  `json:"situation"`
	Severity  float64 `json:"severity"`
	Details   string  `json:"details"`
}

// Recommendation is a suggested operational action derived from the current
// situation.
type Recommendation struct {
	Action         string `json:"action"`
	Priority       string `json:"priority"`
	ExpectedImpact string `json:"expected_impact"`
}

// SituationReport is the body of the recommendations endpoint: the latest
// situation plus the actions derived from it.
type SituationReport struct {
	Situation       Situation        `json:"situation"`
	Recommendations []Recommendation `json:"recommendations"`
}

// TaskRequest is the payload for turning an approved recommendation into an
// operational task.
type TaskRequest struct {
	BranchID       string `json:"branch_id"`
	RequestedBy    string `json:"requested_by"`
	Action         string `json:"action"`
	Priority       string `json:"priority"`
	ExpectedImpact string `json:"expected_impact"`
}
