package config

// DefaultParams returns the reference parameter set written by the setup
// command. Runs do not inherit it implicitly; components carry their own
// construction defaults.
func DefaultParams() Params {
	p := NewParams()
	raw := map[string]map[string]interface{}{
		"grid": {
			"shape":   []interface{}{1, 100},
			"spacing": []interface{}{1.0, 1000.0},
		},
		"clock": {"start": 0.0, "stop": 600000.0, "step": 100.0},
		"output": {
			"interval": 10,
			"filepath": "sequence.nc",
			"clobber":  true,
			"fields":   []interface{}{"sediment_deposit__thickness", "bedrock_surface__elevation"},
		},
		"submarine_diffusion": {
			"plain_slope":      0.0008,
			"wave_base":        60.0,
			"shoreface_height": 15.0,
			"alpha":            0.0005,
			"shelf_slope":      0.001,
			"sediment_load":    3.0,
			"load_sealevel":    0.0,
			"basin_width":      500000.0,
		},
		"sea_level": {
			"amplitude":   10.0,
			"wave_length": 200000.0,
			"phase":       0.0,
			"linear":      0.0,
		},
		"subsidence": {"filepath": "subsidence.csv"},
		"flexure":    {"method": "flexure", "rho_mantle": 3300.0, "isostasytime": 0.0},
		"sediments": {
			"layers":       2,
			"sand":         1.0,
			"mud":          0.006,
			"sand_density": 2650.0,
			"mud_density":  2720.0,
			"sand_frac":    0.5,
			"hemipelagic":  0.0,
		},
		"bathymetry": {"filepath": "bathymetry.csv", "kind": "linear"},
		"compaction": {
			"c":            5.0e-08,
			"porosity_max": 0.5,
			"porosity_min": 0.01,
			"rho_grain":    2650.0,
			"rho_void":     1000.0,
		},
	}
	for name, sec := range raw {
		for k, v := range sec {
			p.Set(name, k, v)
		}
	}
	return p
}

const sampleTOML = `[sequence]
_time = 0.0
processes = [
    "sea_level",
    "subsidence",
    "compaction",
    "submarine_diffusion",
    "fluvial",
    "flexure",
]

[sequence.grid]
shape = [1, 100]
spacing = [1.0, 1000.0]

[sequence.clock]
start = 0.0
stop = 600000.0
step = 100.0

[sequence.output]
interval = 10
filepath = "sequence.nc"
clobber = true
fields = ["sediment_deposit__thickness", "bedrock_surface__elevation"]

[sequence.submarine_diffusion]
plain_slope = 0.0008
wave_base = 60.0
shoreface_height = 15.0
alpha = 0.0005
shelf_slope = 0.001
sediment_load = 3.0
load_sealevel = 0.0
basin_width = 500000.0

[sequence.sea_level]
amplitude = 10.0
wave_length = 200000.0
phase = 0.0
linear = 0.0

[sequence.subsidence]
filepath = "subsidence.csv"

[sequence.flexure]
method = "flexure"
rho_mantle = 3300.0
isostasytime = 0.0

[sequence.sediments]
layers = 2
sand = 1.0
mud = 0.006
sand_density = 2650.0
mud_density = 2720.0
sand_frac = 0.5
hemipelagic = 0.0

[sequence.bathymetry]
filepath = "bathymetry.csv"
kind = "linear"

[sequence.compaction]
c = 5e-8
porosity_max = 0.5
porosity_min = 0.01
rho_grain = 2650.0
rho_void = 1000.0
`

const sampleBathymetry = `x,elevation
0.0,20.0
100000.0,-80.0
`

const sampleSealevel = `time,elevation
0.0,0.0
200000.0,-10.0
`

const sampleSubsidence = `x,rate
0.0,0.0
30000.0,0.0
35000.0,0.0
50000.0,0.0
100000.0,0.0
`

// Sample returns the contents of one of the example input files that the
// setup command writes.
func Sample(name string) (string, bool) {
	switch name {
	case "sequence.toml":
		return sampleTOML, true
	case "bathymetry.csv":
		return sampleBathymetry, true
	case "sealevel.csv":
		return sampleSealevel, true
	case "subsidence.csv":
		return sampleSubsidence, true
	}
	return "", false
}

// SampleNames lists the example input files in the order setup writes them.
func SampleNames() []string {
	return []string{"sequence.toml", "bathymetry.csv", "sealevel.csv", "subsidence.csv"}
}
