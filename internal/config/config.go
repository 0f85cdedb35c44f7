package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Serving
	ListenAddr   string `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	AssetDir     string `json:"asset_dir" yaml:"asset_dir" toml:"asset_dir"`
	AssetBaseURL string `json:"asset_base_url" yaml:"asset_base_url" toml:"asset_base_url"`
	OutputDir    string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// Render settings
	RenderWidth  int `json:"render_width" yaml:"render_width" toml:"render_width"`
	RenderHeight int `json:"render_height" yaml:"render_height" toml:"render_height"`
	Supersample  int `json:"supersample" yaml:"supersample" toml:"supersample"`
	FrameRate    int `json:"frame_rate" yaml:"frame_rate" toml:"frame_rate"`
	Workers      int `json:"workers" yaml:"workers" toml:"workers"`

	// Camera controls
	RotateStepDeg float64 `json:"rotate_step_deg" yaml:"rotate_step_deg" toml:"rotate_step_deg"`
	ZoomFactor    float64 `json:"zoom_factor" yaml:"zoom_factor" toml:"zoom_factor"`

	// LoadTimeout bounds one asset fetch. Zero means no bound.
	LoadTimeout Duration `json:"load_timeout" yaml:"load_timeout" toml:"load_timeout"`
}

// Duration accepts "30s"-style strings in every config format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads a config file and returns Config. The format follows the
// extension: .json, .yaml/.yml or .toml.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: unsupported format %q for %s", ext, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ListenAddr   string
	AssetDir     string
	AssetBaseURL string
	OutputDir    string
	Workers      int
	FrameRate    int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.ListenAddr != "" {
		c.ListenAddr = flags.ListenAddr
	}
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.AssetBaseURL != "" {
		c.AssetBaseURL = flags.AssetBaseURL
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.FrameRate > 0 {
		c.FrameRate = flags.FrameRate
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.AssetDir == "" {
		c.AssetDir = detectAssetDir()
	}
	if c.OutputDir == "" {
		c.OutputDir = "snapshots"
	}

	// Defaults for render settings
	if c.RenderWidth <= 0 {
		c.RenderWidth = 640
	}
	if c.RenderHeight <= 0 {
		c.RenderHeight = 480
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 10
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.RotateStepDeg <= 0 {
		c.RotateStepDeg = 15
	}
	if c.ZoomFactor <= 0 || c.ZoomFactor >= 1 {
		c.ZoomFactor = 0.9
	}
}

// LocalURL is the base URL of this process's own HTTP server. Wildcard
// listen hosts resolve to the loopback address.
func (c Config) LocalURL() string {
	host, port, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return "http://" + c.ListenAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// detectAssetDir looks for a models directory next to the executable or in
// the working directory, falling back to "models".
func detectAssetDir() string {
	var candidates []string
	if exe, _ := os.Executable(); exe != "" {
		dir := filepath.Dir(exe)
		candidates = append(candidates, filepath.Join(dir, "models"), filepath.Join(dir, "static", "models"))
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		candidates = append(candidates, filepath.Join(cwd, "models"), filepath.Join(cwd, "static", "models"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "models"
}
