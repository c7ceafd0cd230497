package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read into Settings,
// e.g. CRTBP_DATA_DIR or CRTBP_MAX_STEPS.
const EnvPrefix = "CRTBP"

// Settings are the runtime options of the command line tool. Values come
// from flags, CRTBP_* environment variables, an optional .crtbp.yaml and
// the defaults below, in that order of precedence.
type Settings struct {
	DataDir  string  `mapstructure:"data_dir"`
	Verbose  bool    `mapstructure:"verbose"`
	AbsTol   float64 `mapstructure:"abs_tol"`
	RelTol   float64 `mapstructure:"rel_tol"`
	MaxSteps int     `mapstructure:"max_steps"`
	Workers  int     `mapstructure:"workers"`
}

// BindEnv points v at the CRTBP_* environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// LoadSettings reads Settings from v, applying defaults for any value not
// set by a config file, the environment or a flag.
func LoadSettings(v *viper.Viper) (Settings, error) {
	v.SetDefault("data_dir", ".crtbp")
	v.SetDefault("verbose", false)
	v.SetDefault("abs_tol", 0.0)
	v.SetDefault("rel_tol", 0.0)
	v.SetDefault("max_steps", 0)
	v.SetDefault("workers", 0)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply layers the non-zero integrator settings over a scenario.
func (s Settings) Apply(cfg *Config) {
	if s.AbsTol > 0 {
		cfg.Integrator.AbsTol = s.AbsTol
	}
	if s.RelTol > 0 {
		cfg.Integrator.RelTol = s.RelTol
	}
	if s.MaxSteps > 0 {
		cfg.Integrator.MaxSteps = s.MaxSteps
	}
}
