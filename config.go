package mixtrack

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"

	"mixtrack/internal/providers"
	"mixtrack/internal/transport"
)

type PersistenceConfig struct {
	// FilePath is the backing file for identity and registered properties.
	// Empty means a per-token file under the user config directory.
	FilePath string `yaml:"filePath"`
}

type Config struct {
	AppName string `yaml:"appName"`
	Token   string `yaml:"token" validate:"required"`

	API         transport.Config        `yaml:"api"`
	Persistence PersistenceConfig       `yaml:"persistence"`
	Logger      providers.LoggerConfig  `yaml:"logger"`
	Metrics     providers.MetricsConfig `yaml:"metrics"`

	// MachineID resolves a stable host identifier for the anonymous device
	// identity. Nil selects the platform default; tests inject their own.
	MachineID func() (string, error) `yaml:"-" json:"-" validate:"-"`
}

// DefaultConfig returns a Config pointed at the public collector with the
// stock retry policy.
func DefaultConfig(token string) *Config {
	return &Config{
		AppName: "mixtrack",
		Token:   token,
		API: transport.Config{
			Host:           "api.mixpanel.com",
			Protocol:       "https",
			MaxRetries:     3,
			RetryBaseDelay: 1 * time.Second,
			RetryMaxDelay:  10 * time.Second,
		},
		Logger: providers.LoggerConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML config file, applying MIXTRACK_* environment
// overrides on top.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig("")

	filename := filepath.Base(path)
	viper.AddConfigPath(filepath.Dir(path))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("token", "MIXTRACK_TOKEN")
	viper.BindEnv("api.host", "MIXTRACK_API_HOST")
	viper.BindEnv("api.secret", "MIXTRACK_API_SECRET")
	viper.BindEnv("logger.level", "MIXTRACK_LOG_LEVEL")
	viper.BindEnv("metrics.enabled", "MIXTRACK_METRICS_ENABLED")
	viper.BindEnv("persistence.filePath", "MIXTRACK_PERSISTENCE_FILE")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(conf)
	if err := cnfValidator.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

type CnfValidator struct {
	conf *Config
}

func NewCnfValidator(conf *Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors.OneError()
	}
	return nil
}
