package config

import "sort"

// Mass ratios of some real primaries.
const (
	MuEarthMoon    = 0.012150585
	MuSunJupiter   = 0.000953875
	MuPlutoCharon  = 0.1085
	MuSunEarthMoon = 3.040357e-6
)

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"earth-moon": {
		Name: "earth-moon", Mu: MuEarthMoon, Duration: 100, Samples: 1000,
		InitState:  InitStateConfig{RelativeTo: 4, X: 0.01},
		Integrator: IntegratorConfig{Name: "rk45"},
	},
	"sun-jupiter": {
		Name: "sun-jupiter", Mu: MuSunJupiter, Duration: 200, Samples: 2000,
		InitState:  InitStateConfig{RelativeTo: 4, X: 0.02},
		Integrator: IntegratorConfig{Name: "rk45"},
	},
	"pluto-charon": {
		Name: "pluto-charon", Mu: MuPlutoCharon, Duration: 50, Samples: 500,
		InitState:  InitStateConfig{RelativeTo: 4, X: 0.001},
		Integrator: IntegratorConfig{Name: "rk45"},
	},
	"l1-halo-seed": {
		Name: "l1-halo-seed", Mu: MuEarthMoon, Duration: 6, Samples: 600,
		InitState:  InitStateConfig{RelativeTo: 1, X: -0.005, Z: 0.02, VY: 0.05},
		Integrator: IntegratorConfig{Name: "rk45"},
	},
	"sun-earth-rk4": {
		Name: "sun-earth-rk4", Mu: MuSunEarthMoon, Duration: 20, Samples: 200,
		InitState:  InitStateConfig{RelativeTo: 2, X: 0.0005},
		Integrator: IntegratorConfig{Name: "rk4", FixedDt: 0.001},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// ListPresets returns the preset names in lexical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
