package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir != ".crtbp" || s.Verbose || s.MaxSteps != 0 {
		t.Errorf("defaults = %+v", s)
	}
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("CRTBP_DATA_DIR", "/tmp/runs")
	t.Setenv("CRTBP_MAX_STEPS", "5000")
	t.Setenv("CRTBP_VERBOSE", "true")
	t.Setenv("CRTBP_REL_TOL", "1e-12")

	v := viper.New()
	BindEnv(v)
	s, err := LoadSettings(v)
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir != "/tmp/runs" || s.MaxSteps != 5000 || !s.Verbose || s.RelTol != 1e-12 {
		t.Errorf("settings from env = %+v", s)
	}
}

func TestLoadSettings_Override(t *testing.T) {
	v := viper.New()
	v.Set("workers", 4)
	s, err := LoadSettings(v)
	if err != nil {
		t.Fatal(err)
	}
	if s.Workers != 4 {
		t.Errorf("Workers = %d", s.Workers)
	}
}

func TestSettingsApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Integrator.AbsTol = 1e-9

	Settings{RelTol: 1e-12, MaxSteps: 10}.Apply(cfg)
	if cfg.Integrator.AbsTol != 1e-9 || cfg.Integrator.RelTol != 1e-12 || cfg.Integrator.MaxSteps != 10 {
		t.Errorf("after Apply: %+v", cfg.Integrator)
	}
}
