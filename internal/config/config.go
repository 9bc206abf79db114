// Package config reads the application configuration through viper and
// validates everything that reaches the autotest core.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/thermocouple"
)

// Data source kinds.
const (
	SourceSimulator = "simulator"
	SourceReplay    = "replay"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	defaultDBPath       = "autotest.db"
	defaultDirection    = "horizontal"
)

var errEmptyLayout = errors.New("mold layout has no thermocouples")

// Config is the full application configuration.
type Config struct {
	LogLevel     string
	DBPath       string
	PollInterval time.Duration
	Console      bool
	Source       Source
	Simulator    Simulator
	Direction    autotest.Direction
	MSD          MSD
	Mold         Mold
}

// Source selects where sensor batches come from.
type Source struct {
	Kind       string `mapstructure:"kind"`
	ReplayPath string `mapstructure:"replay_path"`
	RecordPath string `mapstructure:"record_path"`
}

// Simulator tunes the stand-in for the PLC link.
type Simulator struct {
	Ambient            float64           `mapstructure:"ambient"`
	HotLabels          []int             `mapstructure:"hot_labels"`
	HotTemperature     float64           `mapstructure:"hot_temperature"`
	DisconnectedLabels []int             `mapstructure:"disconnected_labels"`
	FaultedSides       map[string]string `mapstructure:"faulted_sides"`
	HeatGun            HeatGun           `mapstructure:"heat_gun"`
}

// HeatGun drives the simulated operator who heats one thermocouple at a time.
type HeatGun struct {
	Enabled  bool          `mapstructure:"enabled"`
	RateCPS  float64       `mapstructure:"rate_c_per_sec"`
	Dwell    time.Duration `mapstructure:"dwell"`
	Pause    time.Duration `mapstructure:"pause"`
	CoolCPS  float64       `mapstructure:"cool_c_per_sec"`
	SideName string        `mapstructure:"side"`
}

// Validate rejects negative rates or phases and a zero-length cycle of an
// enabled heat gun.
func (g HeatGun) Validate() error {
	if !g.Enabled {
		return nil
	}
	switch {
	case !(g.RateCPS >= 0) || !(g.CoolCPS >= 0):
		return fmt.Errorf("simulator.heat_gun: rates must not be negative (rate %v, cool %v)", g.RateCPS, g.CoolCPS)
	case g.Dwell < 0 || g.Pause < 0:
		return fmt.Errorf("simulator.heat_gun: dwell and pause must not be negative (dwell %v, pause %v)", g.Dwell, g.Pause)
	case g.Dwell+g.Pause <= 0:
		return errors.New("simulator.heat_gun: dwell plus pause must be positive")
	}
	return nil
}

// Mold describes the mold under test and its thermocouple layout.
type Mold struct {
	No    string     `mapstructure:"no"`
	Label string     `mapstructure:"label"`
	Sides []MoldSide `mapstructure:"sides"`
}

// MoldSide lists the thermocouples mounted on one side.
type MoldSide struct {
	Name    string           `mapstructure:"name"`
	Sensors []SensorPosition `mapstructure:"sensors"`
}

// SensorPosition is one thermocouple of a side.
type SensorPosition struct {
	Label int `mapstructure:"label"`
	X     int `mapstructure:"x"`
	Y     int `mapstructure:"y"`
}

// Name is the mold name shown on reports, "<no>_<label>".
func (m Mold) Name() string {
	return m.No + "_" + m.Label
}

// Layout flattens the sides into thermocouple positions.
func (m Mold) Layout() ([]thermocouple.Position, error) {
	var out []thermocouple.Position
	seen := make(map[int]bool)
	for _, s := range m.Sides {
		side, err := thermocouple.ParseSide(s.Name)
		if err != nil {
			return nil, err
		}
		for _, p := range s.Sensors {
			if p.Label <= 0 || seen[p.Label] {
				return nil, fmt.Errorf("%s side: invalid or duplicate label %d", side, p.Label)
			}
			seen[p.Label] = true
			out = append(out, thermocouple.Position{Label: p.Label, X: p.X, Y: p.Y, Side: side})
		}
	}
	if len(out) == 0 {
		return nil, errEmptyLayout
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", defaultDBPath)
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("console", true)
	v.SetDefault("source.kind", SourceSimulator)
	v.SetDefault("session.direction", defaultDirection)

	d := DefaultMSD()
	v.SetDefault("msd.detection_time", d.DetectionTime.String())
	v.SetDefault("msd.detection_degrees", d.DetectionDegrees)
	v.SetDefault("msd.test_time", d.TestTime.String())
	v.SetDefault("msd.test_degrees", d.TestDegrees)
	v.SetDefault("msd.tester_name", d.TesterName)
	v.SetDefault("msd.min_graph_temperature", d.MinGraphTemperature)
	v.SetDefault("msd.max_graph_temperature", d.MaxGraphTemperature)

	v.SetDefault("simulator.ambient", 25.2)
	v.SetDefault("simulator.hot_temperature", 30.0)
	v.SetDefault("simulator.heat_gun.rate_c_per_sec", 3.0)
	v.SetDefault("simulator.heat_gun.cool_c_per_sec", 0.5)
	v.SetDefault("simulator.heat_gun.dwell", 4*time.Second)
	v.SetDefault("simulator.heat_gun.pause", 3*time.Second)
}

// loadSimulator reads the section key by key so that defaults fill the gaps
// left by a partial section in the config file.
func loadSimulator(v *viper.Viper) Simulator {
	return Simulator{
		Ambient:            v.GetFloat64("simulator.ambient"),
		HotLabels:          v.GetIntSlice("simulator.hot_labels"),
		HotTemperature:     v.GetFloat64("simulator.hot_temperature"),
		DisconnectedLabels: v.GetIntSlice("simulator.disconnected_labels"),
		FaultedSides:       v.GetStringMapString("simulator.faulted_sides"),
		HeatGun: HeatGun{
			Enabled:  v.GetBool("simulator.heat_gun.enabled"),
			RateCPS:  v.GetFloat64("simulator.heat_gun.rate_c_per_sec"),
			CoolCPS:  v.GetFloat64("simulator.heat_gun.cool_c_per_sec"),
			Dwell:    v.GetDuration("simulator.heat_gun.dwell"),
			Pause:    v.GetDuration("simulator.heat_gun.pause"),
			SideName: v.GetString("simulator.heat_gun.side"),
		},
	}
}

// Load builds a validated Config from v. The caller reads the config file.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		LogLevel:     v.GetString("log_level"),
		DBPath:       v.GetString("db.path"),
		PollInterval: v.GetDuration("poll_interval"),
		Console:      v.GetBool("console"),
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll_interval must be positive, got %v", cfg.PollInterval)
	}

	cfg.Source = Source{
		Kind:       v.GetString("source.kind"),
		ReplayPath: v.GetString("source.replay_path"),
		RecordPath: v.GetString("source.record_path"),
	}
	switch cfg.Source.Kind {
	case SourceSimulator:
	case SourceReplay:
		if cfg.Source.ReplayPath == "" {
			return Config{}, errors.New("source.replay_path is required for the replay source")
		}
	default:
		return Config{}, fmt.Errorf("unknown source.kind %q", cfg.Source.Kind)
	}

	cfg.Simulator = loadSimulator(v)
	if err := cfg.Simulator.HeatGun.Validate(); err != nil {
		return Config{}, err
	}

	// Unknown directions keep the default, as everywhere else directions are set.
	if d, ok := autotest.ParseDirection(v.GetString("session.direction")); ok {
		cfg.Direction = d
	}

	msd, err := ParseMSD(map[string]string{
		KeyDetectionTime:       v.GetString("msd.detection_time"),
		KeyDetectionDegrees:    v.GetString("msd.detection_degrees"),
		KeyTestTime:            v.GetString("msd.test_time"),
		KeyTestDegrees:         v.GetString("msd.test_degrees"),
		KeyTesterName:          v.GetString("msd.tester_name"),
		KeyMinGraphTemperature: v.GetString("msd.min_graph_temperature"),
		KeyMaxGraphTemperature: v.GetString("msd.max_graph_temperature"),
	}, DefaultMSD())
	if err != nil {
		return Config{}, err
	}
	cfg.MSD = msd

	if err := v.UnmarshalKey("mold", &cfg.Mold); err != nil {
		return Config{}, fmt.Errorf("decode mold: %w", err)
	}
	if _, err := cfg.Mold.Layout(); err != nil {
		return Config{}, fmt.Errorf("mold layout: %w", err)
	}
	return cfg, nil
}
