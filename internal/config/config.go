package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Context-overflow policies accepted by the completion endpoint.
const (
	OverflowTruncate = "truncate"
	OverflowError    = "error"
)

const defaultModel = "accounts/fireworks/models/firefunction-v2"

// DefaultMaxToolRounds bounds how many completion/tool-execute rounds
// one turn may take before it is abandoned.
const DefaultMaxToolRounds = 8

// Profile holds the per-provider connection settings.
type Profile struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url,omitempty"`
	Model       string `json:"model"`
	VisionModel string `json:"vision_model,omitempty"`
}

// Generation holds the sampling parameters sent with every completion
// request. User-adjustable between turns, immutable per request.
type Generation struct {
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p"`
	TopK             int      `json:"top_k"`
	PresencePenalty  float64  `json:"presence_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	Stop             []string `json:"stop,omitempty"`
	// ContextOverflow selects what the endpoint does when the
	// conversation exceeds the model context: "truncate" or "error".
	ContextOverflow string `json:"context_overflow"`
}

// Config is the persisted fnchat configuration.
type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
	Generation    Generation         `json:"generation"`
	// EnabledTools is an allow-list of tool names. Empty means all
	// builtin tools are exposed.
	EnabledTools []string `json:"enabled_tools,omitempty"`
	// MaxToolRounds bounds the completion/tool-execute loop of a
	// single turn.
	MaxToolRounds int `json:"max_tool_rounds"`
	// ResourceDir is where binary tool results are stored. Empty means
	// a per-process temp directory.
	ResourceDir string `json:"resource_dir,omitempty"`

	currentProfile *Profile
}

// DefaultGeneration mirrors the demo's initial request parameters.
func DefaultGeneration() Generation {
	return Generation{
		Temperature:      0,
		MaxTokens:        1024,
		TopP:             1,
		TopK:             50,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
		ContextOverflow:  OverflowTruncate,
	}
}

// Load reads the config file (creating a default one on first run),
// applies .env and FNCHAT_* environment overrides, and validates the
// result.
func Load() (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.setCurrentProfile()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a bad hand-edit is most likely to break.
func (c *Config) Validate() error {
	switch c.Generation.ContextOverflow {
	case OverflowTruncate, OverflowError:
	default:
		return fmt.Errorf("invalid context_overflow %q: must be %q or %q",
			c.Generation.ContextOverflow, OverflowTruncate, OverflowError)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("max_tool_rounds must be at least 1, got %d", c.MaxToolRounds)
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.APIKey != ""
}

func (c *Config) APIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

func (c *Config) Model() string {
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return defaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) VisionModel() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.VisionModel
}

func (c *Config) BaseURL() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.BaseURL
}

func (c *Config) applyEnv() {
	if c.currentProfile == nil {
		c.currentProfile = &Profile{}
	}
	if v := os.Getenv("FNCHAT_API_KEY"); v != "" {
		c.currentProfile.APIKey = v
	}
	if v := os.Getenv("FNCHAT_BASE_URL"); v != "" {
		c.currentProfile.BaseURL = v
	}
	if v := os.Getenv("FNCHAT_MODEL"); v != "" {
		c.currentProfile.Model = v
	}
	if v := os.Getenv("FNCHAT_VISION_MODEL"); v != "" {
		c.currentProfile.VisionModel = v
	}
	if v := os.Getenv("FNCHAT_TOOLS"); v != "" {
		var names []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		c.EnabledTools = names
	}
	if v := os.Getenv("FNCHAT_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxToolRounds = n
		}
	}
}

func getConfigPath() (string, error) {
	var configDir string

	// FNCHAT_HOME overrides the default location under the user's home.
	if fnHome := os.Getenv("FNCHAT_HOME"); fnHome != "" {
		configDir = fnHome
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".fnchat", "config.json"), nil
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Generation:    DefaultGeneration(),
		MaxToolRounds: DefaultMaxToolRounds,
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {
				APIKey:  "",
				BaseURL: "https://api.fireworks.ai/inference/v1",
				Model:   defaultModel,
			},
		},
		ActiveProfile: "default",
		Generation:    DefaultGeneration(),
		MaxToolRounds: DefaultMaxToolRounds,
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		for name, p := range c.Profiles {
			c.ActiveProfile = name
			profile = p
			exists = true
			break
		}
	}

	if !exists {
		// No profiles at all; env overrides may still make the config
		// usable.
		c.currentProfile = &Profile{}
		return
	}

	c.currentProfile = &profile
}
