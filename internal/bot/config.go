package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/danielambrosim/sistema-bot-leil-o/core/config"
	coredatabase "github.com/danielambrosim/sistema-bot-leil-o/core/database"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/mail"
)

// SessionConfig tunes the in-memory session store.
type SessionConfig struct {
	IdleMinutes  int `yaml:"idle_minutes" envconfig:"SESSION_IDLE_MINUTES"`
	SweepMinutes int `yaml:"sweep_minutes" envconfig:"SESSION_SWEEP_MINUTES"`
}

// EditaisConfig tunes notice lookup.
type EditaisConfig struct {
	Max            int `yaml:"max" envconfig:"EDITAIS_MAX"`
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"EDITAIS_TIMEOUT_SECONDS"`
}

// ValidacaoConfig selects document validation strictness:
// "estrito" (check digits, default) or "formato" (digit count only).
type ValidacaoConfig struct {
	Modo string `yaml:"modo" envconfig:"VALIDACAO_MODO"`
}

// Config is the full application configuration: the reusable core sections
// plus the bot's own collaborators.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Database  coredatabase.Config `yaml:"database"`
	Mail      mail.Config         `yaml:"mail"`
	Sessions  SessionConfig       `yaml:"sessions"`
	Editais   EditaisConfig       `yaml:"editais"`
	Validacao ValidacaoConfig     `yaml:"validacao"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML file, overlays environment variables and
// validates the core sections.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bot: ler config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bot: interpretar config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("bot: processar env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}
