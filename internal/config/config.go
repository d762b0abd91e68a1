package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DefaultLLM string                `toml:"default_llm"`
	LLMs       map[string]*LLMConfig `toml:"llm"`
	Gateway    GatewayConfig         `toml:"gateway"`
	Discovery  DiscoveryConfig       `toml:"discovery"`
	DB         DBConfig              `toml:"db"`
	Services   ServicesConfig        `toml:"services"`
	MCP        MCPConfig             `toml:"mcp"`
	Trace      TraceConfig           `toml:"trace"`
}

// LLMConfig describes one serving backend. Type selects the client:
// "ollama" talks the native ollama API (and reports model sizes during
// discovery), "openai" talks any OpenAI-compatible endpoint.
type LLMConfig struct {
	Type    string `toml:"type"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type GatewayConfig struct {
	Addr string `toml:"addr"`
}

type DiscoveryConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	RefreshSeconds int `toml:"refresh_seconds"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type ServicesConfig struct {
	Brave BraveConfig `toml:"brave"`
}

type BraveConfig struct {
	APIKey string `toml:"api_key"`
}

type MCPConfig struct {
	Servers []MCPServer `toml:"servers"`
}

type MCPServer struct {
	Name      string            `toml:"name"`
	Transport string            `toml:"transport"` // "stdio" or "http"
	Command   string            `toml:"command"`
	Args      []string          `toml:"args"`
	Env       map[string]string `toml:"env"`
	URL       string            `toml:"url"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

func Load() (*Config, error) {
	cfg := &Config{
		DefaultLLM: "ollama",
		LLMs: map[string]*LLMConfig{
			"ollama": {
				Type:    "ollama",
				BaseURL: "http://localhost:11434",
			},
		},
		Gateway: GatewayConfig{
			Addr: ":8184",
		},
		Discovery: DiscoveryConfig{
			TimeoutSeconds: 10,
			RefreshSeconds: 60,
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "mosaic", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "mosaic", "mosaic.db")
}
