package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ap-task/pitch"
)

// AppName names the config directory
const AppName = "ap-task"

// ResultsFilename is the fixed name of the exported results file
const ResultsFilename = "ap_task_results.csv"

// Duration is a time.Duration that reads and writes as "1.8s" in JSON
type Duration time.Duration

func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ExperimentConfig holds the trial design parameters
type ExperimentConfig struct {
	BaseFreq           float64       `json:"baseFreq"`
	Scale              pitch.Lattice `json:"scale"`
	ScaleOffsetEnabled bool          `json:"scaleOffsetEnabled"`
	ScaleOffset        pitch.Lattice `json:"scaleOffset"`
	PracticeTrials     int           `json:"practiceTrials"`
	MainBlocks         int           `json:"mainBlocks"`
	MinStartDeltaCents int           `json:"minStartDeltaCents"`
	PracticeRadius     int           `json:"practiceRadiusCents"`
	AnchorNotes        []string      `json:"anchorNotes"`
	MaxAttempts        int           `json:"maxAttempts"`
}

// TimingConfig holds the trial phase durations
type TimingConfig struct {
	NoteDisplay   Duration `json:"noteDisplay"`
	MaxResponse   Duration `json:"maxResponse"`
	Fade          Duration `json:"fade"`
	FadeHold      Duration `json:"fadeHold"`
	CountdownTick Duration `json:"countdownTick"`
}

// AudioConfig defines the MIDI synth output
type AudioConfig struct {
	PortName      string  `json:"portName,omitempty"` // empty picks the first output port
	Channel       uint8   `json:"channel"`            // tone channel, 1-16
	NoiseChannel  uint8   `json:"noiseChannel"`       // 1-16, must differ from Channel
	ToneProgram   uint8   `json:"toneProgram"`        // GM program, 0-based
	NoiseProgram  uint8   `json:"noiseProgram"`
	BendRange     int     `json:"bendRangeSemitones"`
	StartGain     float64 `json:"startGain"`
	FadeSteps     int     `json:"fadeSteps"`
	NoiseVelocity uint8   `json:"noiseVelocity"`
}

// ControllerConfig maps an optional MIDI input device onto the response slider
type ControllerConfig struct {
	PortName string `json:"portName,omitempty"` // empty disables the controller
	CC       uint8  `json:"cc"`                 // controller number that moves the slider
}

// ExportConfig controls where results are written
type ExportConfig struct {
	Dir      string `json:"dir,omitempty"` // empty means the results dir under the config dir
	Filename string `json:"filename"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `json:"palette,omitempty"` // optional GIMP palette path
	SliderWidth int    `json:"sliderWidth"`
}

// Config is the main configuration structure
type Config struct {
	Experiment ExperimentConfig `json:"experiment"`
	Timing     TimingConfig     `json:"timing"`
	Audio      AudioConfig      `json:"audio"`
	Controller ControllerConfig `json:"controller"`
	Export     ExportConfig     `json:"export"`
	UI         UIConfig         `json:"ui"`
	Debug      bool             `json:"debug,omitempty"`
}

// DefaultConfig returns the parameters of the reference experiment
func DefaultConfig() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			BaseFreq:           196,
			Scale:              pitch.Lattice{Min: -48, Max: 2848, Step: 4},
			ScaleOffsetEnabled: false,
			ScaleOffset:        pitch.Lattice{Min: -248, Max: 248, Step: 4},
			PracticeTrials:     3,
			MainBlocks:         3,
			MinStartDeltaCents: 1250,
			PracticeRadius:     150,
			AnchorNotes:        []string{"A", "C", "G"},
			MaxAttempts:        10000,
		},
		Timing: TimingConfig{
			NoteDisplay:   Duration(1800 * time.Millisecond),
			MaxResponse:   Duration(15 * time.Second),
			Fade:          Duration(100 * time.Millisecond),
			FadeHold:      Duration(500 * time.Millisecond),
			CountdownTick: Duration(time.Second),
		},
		Audio: AudioConfig{
			Channel:       1,
			NoiseChannel:  2,
			ToneProgram:   79,  // Ocarina
			NoiseProgram:  122, // Seashore
			BendRange:     2,
			StartGain:     0.05,
			FadeSteps:     10,
			NoiseVelocity: 100,
		},
		Controller: ControllerConfig{
			CC: 1, // mod wheel
		},
		Export: ExportConfig{
			Filename: ResultsFilename,
		},
		UI: UIConfig{
			SliderWidth: 60,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DebugLogPath returns where debug.Log writes
func DebugLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResultsDir returns the directory results are exported to
func (c *Config) ResultsDir() (string, error) {
	if c.Export.Dir != "" {
		return c.Export.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "results"), nil
}

// Anchors resolves the anchor note names
func (c *Config) Anchors() ([]pitch.Note, error) {
	var out []pitch.Note
	for _, name := range c.Experiment.AnchorNotes {
		n, ok := pitch.NoteByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown anchor note %q", name)
		}
		out = append(out, n)
	}
	return out, nil
}

// Validate checks the config for values the experiment cannot run with
func (c *Config) Validate() error {
	e := c.Experiment
	if e.BaseFreq <= 0 {
		return fmt.Errorf("baseFreq must be positive, got %v", e.BaseFreq)
	}
	if e.Scale.Step <= 0 || e.Scale.Max < e.Scale.Min {
		return fmt.Errorf("invalid scale %d..%d step %d", e.Scale.Min, e.Scale.Max, e.Scale.Step)
	}
	if e.ScaleOffsetEnabled && (e.ScaleOffset.Step <= 0 || e.ScaleOffset.Max < e.ScaleOffset.Min) {
		return fmt.Errorf("invalid scale offset %d..%d step %d", e.ScaleOffset.Min, e.ScaleOffset.Max, e.ScaleOffset.Step)
	}
	if e.PracticeTrials < 1 || e.PracticeTrials > pitch.NumNotes {
		return fmt.Errorf("practiceTrials must be 1-%d, got %d", pitch.NumNotes, e.PracticeTrials)
	}
	if e.MainBlocks < 1 {
		return fmt.Errorf("mainBlocks must be at least 1, got %d", e.MainBlocks)
	}
	if e.MinStartDeltaCents < 0 || e.PracticeRadius < 0 {
		return fmt.Errorf("cents thresholds must not be negative")
	}
	if _, err := c.Anchors(); err != nil {
		return err
	}
	if c.Timing.MaxResponse <= 0 {
		return fmt.Errorf("maxResponse must be positive")
	}
	if c.Timing.CountdownTick <= 0 {
		return fmt.Errorf("countdownTick must be positive")
	}
	if c.Audio.Channel < 1 || c.Audio.Channel > 16 {
		return fmt.Errorf("audio channel must be 1-16, got %d", c.Audio.Channel)
	}
	if c.Audio.NoiseChannel < 1 || c.Audio.NoiseChannel > 16 || c.Audio.NoiseChannel == c.Audio.Channel {
		return fmt.Errorf("noise channel must be 1-16 and differ from the tone channel, got %d", c.Audio.NoiseChannel)
	}
	if c.Audio.FadeSteps < 1 {
		return fmt.Errorf("fadeSteps must be at least 1")
	}
	if c.Controller.CC > 127 {
		return fmt.Errorf("controller cc must be 0-127, got %d", c.Controller.CC)
	}
	if c.Audio.BendRange < 1 {
		return fmt.Errorf("bendRangeSemitones must be at least 1")
	}
	if c.Export.Filename == "" {
		return fmt.Errorf("export filename must not be empty")
	}
	return nil
}
