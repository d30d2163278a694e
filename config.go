package duskline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the host-level configuration for a duskline pipeline run:
// the diff engine's policy knobs, the flow-control policy's caps and
// weights, and capability overrides for environments where
// auto-detection gets it wrong (CI runners, recorded test fixtures).
type Config struct {
	Diff         DiffConfigTOML         `toml:"diff"`
	FlowControl  FlowControlConfigTOML  `toml:"flow_control"`
	Capabilities CapabilitiesOverride   `toml:"capabilities"`
	Trace        TraceConfig            `toml:"trace"`
}

// DiffConfigTOML mirrors DiffConfig with toml tags; ToDiffConfig
// converts it to the engine's runtime type.
type DiffConfigTOML struct {
	DirtyRows bool `toml:"dirty_rows"`
	GuardBand int  `toml:"guard_band"`
	MergeGap  int  `toml:"merge_gap"`
}

// ToDiffConfig converts the TOML-decoded config into a DiffConfig.
func (c DiffConfigTOML) ToDiffConfig() DiffConfig {
	return DiffConfig{DirtyRows: c.DirtyRows, GuardBand: c.GuardBand, MergeGap: c.MergeGap}
}

// FlowControlConfigTOML mirrors the subset of FlowControlConfig an
// operator is expected to tune; unset fields fall back to
// DefaultFlowControlConfig's values.
type FlowControlConfigTOML struct {
	InputSoftCapBytes  uint64  `toml:"input_soft_cap_bytes"`
	InputHardCapBytes  uint64  `toml:"input_hard_cap_bytes"`
	OutputSoftCapBytes uint64  `toml:"output_soft_cap_bytes"`
	OutputHardCapBytes uint64  `toml:"output_hard_cap_bytes"`
	FairnessFloor      float64 `toml:"fairness_floor"`
	KeyLatencyBudgetMs float64 `toml:"key_latency_budget_ms"`
}

// ToFlowControlConfig overlays the TOML-decoded overrides onto
// DefaultFlowControlConfig, leaving zero-valued fields at their default.
func (c FlowControlConfigTOML) ToFlowControlConfig() FlowControlConfig {
	cfg := DefaultFlowControlConfig()
	if c.InputSoftCapBytes != 0 {
		cfg.InputSoftCapBytes = c.InputSoftCapBytes
	}
	if c.InputHardCapBytes != 0 {
		cfg.InputHardCapBytes = c.InputHardCapBytes
	}
	if c.OutputSoftCapBytes != 0 {
		cfg.OutputSoftCapBytes = c.OutputSoftCapBytes
	}
	if c.OutputHardCapBytes != 0 {
		cfg.OutputHardCapBytes = c.OutputHardCapBytes
	}
	if c.FairnessFloor != 0 {
		cfg.FairnessFloor = c.FairnessFloor
	}
	if c.KeyLatencyBudgetMs != 0 {
		cfg.KeyLatencyBudgetMs = c.KeyLatencyBudgetMs
	}
	return cfg
}

// CapabilitiesOverride lets an operator pin specific capability flags
// rather than trust auto-detection, for CI and recorded fixtures.
type CapabilitiesOverride struct {
	ForceProfile    string `toml:"force_profile"`
	ForceTrueColor  *bool  `toml:"force_true_color"`
	ForceSyncOutput *bool  `toml:"force_sync_output"`
	ForceOSC8       *bool  `toml:"force_osc8_hyperlinks"`
}

// Apply overlays the override onto a detected Capabilities value.
func (o CapabilitiesOverride) Apply(caps Capabilities) Capabilities {
	if o.ForceProfile != "" {
		caps.Profile = o.ForceProfile
	}
	if o.ForceTrueColor != nil {
		caps.TrueColor = *o.ForceTrueColor
	}
	if o.ForceSyncOutput != nil {
		caps.SyncOutput = *o.ForceSyncOutput
	}
	if o.ForceOSC8 != nil {
		caps.OSC8Hyperlinks = *o.ForceOSC8
	}
	return caps
}

// TraceConfig controls whether and where the host records a render
// trace.
type TraceConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultConfig returns the configuration used when no config file is
// found: diff dirty-rows disabled, no guard band or merge gap, default
// flow-control caps, no capability overrides, tracing disabled.
func DefaultConfig() *Config {
	return &Config{
		FlowControl: FlowControlConfigTOML{},
	}
}

// Load reads configuration from the standard config path search order:
//  1. $XDG_CONFIG_HOME/duskline/config.toml
//  2. ~/.config/duskline/config.toml
//
// If no file exists at either path, returns DefaultConfig().
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return DefaultConfig(), nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newPipelineError(ErrIO, "config.LoadFromFile", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, newPipelineError(ErrIO, "config.LoadFromReader", err)
	}
	return cfg, nil
}

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "duskline", "config.toml"))

	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "duskline", "config.toml"))
	}

	return paths
}

func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}
