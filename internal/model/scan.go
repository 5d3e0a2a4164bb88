package model

import "time"

// Candidate is a ranked swing-trade setup.
type Candidate struct {
	Instrument
	Score          float64       `json:"score"`
	ScoreBreakdown []FactorScore `json:"score_breakdown"`
	Signals        SignalSet     `json:"signals"`
	SignalCount    int           `json:"signal_count"`
	Filters        FilterSet     `json:"filters"`
	Latest         Snapshot      `json:"latest"`
	Levels         LevelPlan     `json:"levels"`
	Supports       []float64     `json:"supports"`
	Resistances    []float64     `json:"resistances"`
	Sparkline      []float64     `json:"sparkline,omitempty"`
}

// ScanStats counts per-instrument outcomes of one scan.
type ScanStats struct {
	Total    int `json:"total"`
	Scanned  int `json:"scanned"`
	Filtered int `json:"filtered"`
	Skipped  int `json:"skipped"`
}

// ScanResult is the cached, serialisable output of a market scan.
type ScanResult struct {
	ScanID     string      `json:"scan_id"`
	Market     string      `json:"market"`
	Candidates []Candidate `json:"candidates"`
	Stats      ScanStats   `json:"stats"`
	Count      int         `json:"count"`
	ScannedAt  time.Time   `json:"scanned_at"`
	Cached     bool        `json:"cached"`
}
