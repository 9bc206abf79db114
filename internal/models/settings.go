package models

import "time"

// MSDConfig holds the autotest thresholds and report settings.
type MSDConfig struct {
	ID                  int           `json:"id"`
	DetectionTime       time.Duration `json:"detection_time"`    // trailing detection window
	DetectionDegrees    float64       `json:"detection_degrees"` // °C rise within the window
	TestTime            time.Duration `json:"test_time"`         // test time-out
	TestDegrees         float64       `json:"test_degrees"`      // °C rise to pass
	TesterName          string        `json:"tester_name"`
	MinGraphTemperature float64       `json:"min_graph_temperature"`
	MaxGraphTemperature float64       `json:"max_graph_temperature"`
	UpdatedAt           time.Time     `json:"updated_at"`
}
