package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/models"
)

// Setting keys accepted by ParseMSD.
const (
	KeyDetectionTime       = "detection_time"
	KeyDetectionDegrees    = "detection_degrees"
	KeyTestTime            = "test_time"
	KeyTestDegrees         = "test_degrees"
	KeyTesterName          = "tester_name"
	KeyMinGraphTemperature = "min_graph_temperature"
	KeyMaxGraphTemperature = "max_graph_temperature"
)

// ErrInvalidSetting is wrapped by every settings parse or validation error.
var ErrInvalidSetting = errors.New("invalid setting")

// MSD is the validated threshold configuration.
type MSD = models.MSDConfig

// DefaultMSD returns the factory thresholds.
func DefaultMSD() MSD {
	return MSD{
		DetectionTime:       time.Second,
		DetectionDegrees:    1,
		TestTime:            10 * time.Second,
		TestDegrees:         4,
		TesterName:          "unknown",
		MinGraphTemperature: 24,
		MaxGraphTemperature: 38,
	}
}

// Thresholds extracts the values the autotest session reads on every tick.
func Thresholds(m MSD) autotest.Thresholds {
	return autotest.Thresholds{
		DetectionTime:    m.DetectionTime,
		DetectionDegrees: m.DetectionDegrees,
		TestTime:         m.TestTime,
		TestDegrees:      m.TestDegrees,
	}
}

// ParseMSD applies the string parameters on top of base and validates the
// result. Empty values keep the base value; unknown keys are rejected.
func ParseMSD(params map[string]string, base MSD) (MSD, error) {
	out := base
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(params[key])
		if raw == "" {
			continue
		}
		var err error
		switch key {
		case KeyDetectionTime:
			out.DetectionTime, err = ParseDuration(raw)
		case KeyTestTime:
			out.TestTime, err = ParseDuration(raw)
		case KeyDetectionDegrees:
			out.DetectionDegrees, err = parseFloat(raw)
		case KeyTestDegrees:
			out.TestDegrees, err = parseFloat(raw)
		case KeyMinGraphTemperature:
			out.MinGraphTemperature, err = parseFloat(raw)
		case KeyMaxGraphTemperature:
			out.MaxGraphTemperature, err = parseFloat(raw)
		case KeyTesterName:
			out.TesterName = raw
		default:
			return base, fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
		}
		if err != nil {
			return base, fmt.Errorf("%w: %s=%q: %v", ErrInvalidSetting, key, raw, err)
		}
	}

	if err := Validate(out); err != nil {
		return base, err
	}
	return out, nil
}

var errNotFinite = errors.New("must be a finite number")

// parseFloat is strconv.ParseFloat without NaN and infinities.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects non-positive or non-finite thresholds and an empty graph range.
// Comparisons are negated so that NaN fails them.
func Validate(m MSD) error {
	switch {
	case !(m.DetectionTime > 0):
		return fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, KeyDetectionTime)
	case !(m.DetectionDegrees > 0) || !finite(m.DetectionDegrees):
		return fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, KeyDetectionDegrees)
	case !(m.TestTime > 0):
		return fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, KeyTestTime)
	case !(m.TestDegrees > 0) || !finite(m.TestDegrees):
		return fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, KeyTestDegrees)
	case !finite(m.MinGraphTemperature) || !finite(m.MaxGraphTemperature):
		return fmt.Errorf("%w: graph temperatures must be finite", ErrInvalidSetting)
	case !(m.MinGraphTemperature < m.MaxGraphTemperature):
		return fmt.Errorf("%w: %s must be below %s", ErrInvalidSetting, KeyMinGraphTemperature, KeyMaxGraphTemperature)
	}
	return nil
}

// ParseDuration accepts bare seconds ("10", "1.5"), Go durations ("10s",
// "1m30s") and ISO 8601 durations ("PT10S").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil && finite(secs) {
		return time.Duration(secs * float64(time.Second)), nil
	}
	if strings.HasPrefix(strings.ToUpper(s), "P") {
		d, err := duration.Parse(strings.ToUpper(s))
		if err != nil {
			return 0, err
		}
		return d.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}

// FormatSettings renders m as the key/value pairs accepted by ParseMSD.
func FormatSettings(m MSD) map[string]string {
	return map[string]string{
		KeyDetectionTime:       m.DetectionTime.String(),
		KeyDetectionDegrees:    strconv.FormatFloat(m.DetectionDegrees, 'f', -1, 64),
		KeyTestTime:            m.TestTime.String(),
		KeyTestDegrees:         strconv.FormatFloat(m.TestDegrees, 'f', -1, 64),
		KeyTesterName:          m.TesterName,
		KeyMinGraphTemperature: strconv.FormatFloat(m.MinGraphTemperature, 'f', -1, 64),
		KeyMaxGraphTemperature: strconv.FormatFloat(m.MaxGraphTemperature, 'f', -1, 64),
	}
}
