// Package config reads divzero.toml files. Files are searched for from the
// analysed directory upwards, and files closer to the directory take
// precedence over files further up, which take precedence over the defaults.
// A list may splice in the list it overrides with the element "inherit".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/cs-au-dk/divzero/analysis/frontend"
	"github.com/cs-au-dk/divzero/analysis/oracle"
)

// ErrUnknownOracle is returned for configurations naming an oracle that does
// not exist.
var ErrUnknownOracle = errors.New("unknown oracle")

const configName = "divzero.toml"

type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Report   ReportConfig   `toml:"report"`
}

type AnalysisConfig struct {
	// InputSources are functions whose results are external input.
	InputSources []string `toml:"input_sources"`
	// TaintSources are additional functions whose results are tainted, on
	// top of the input sources.
	TaintSources []string `toml:"taint_sources"`
	// Sanitizers are functions that validate their arguments.
	Sanitizers []string `toml:"sanitizers"`
	Oracle     string   `toml:"oracle"`
	// MaxPops bounds the worklist pops per function; 0 derives the bound.
	MaxPops int `toml:"max_pops"`
}

type ReportConfig struct {
	ShowUnhandled bool `toml:"show_unhandled"`
	Color         bool `toml:"color"`
}

var defaultConfig = Config{
	Analysis: AnalysisConfig{
		InputSources: append([]string(nil), frontend.DefaultInputSources...),
		TaintSources: []string{},
		Sanitizers:   []string{},
		Oracle:       oracle.KindUnify,
	},
	Report: ReportConfig{
		Color: true,
	},
}

// Default returns the configuration used in the absence of files.
func Default() Config {
	cfg := defaultConfig
	cfg.Analysis.InputSources = append([]string(nil), defaultConfig.Analysis.InputSources...)
	cfg.Analysis.TaintSources = []string{}
	cfg.Analysis.Sanitizers = []string{}
	return cfg
}

type config struct {
	cfg  Config
	meta toml.MetaData
}

func mergeLists(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, el := range b {
		if el == "inherit" {
			out = append(out, a...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func normalizeList(list []string) []string {
	if len(list) > 1 {
		sort.Strings(list)
		nlist := make([]string, 0, len(list))
		nlist = append(nlist, list[0])
		for i, el := range list[1:] {
			if el != list[i] {
				nlist = append(nlist, el)
			}
		}
		list = nlist
	}

	for _, el := range list {
		if el == "inherit" {
			// The defaults never use "inherit", so every occurrence is
			// resolved by merging.
			panic(`unresolved "inherit"`)
		}
	}

	return list
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("analysis", "input_sources") {
		cfg.cfg.Analysis.InputSources = mergeLists(cfg.cfg.Analysis.InputSources, ocfg.cfg.Analysis.InputSources)
	}
	if ocfg.meta.IsDefined("analysis", "taint_sources") {
		cfg.cfg.Analysis.TaintSources = mergeLists(cfg.cfg.Analysis.TaintSources, ocfg.cfg.Analysis.TaintSources)
	}
	if ocfg.meta.IsDefined("analysis", "sanitizers") {
		cfg.cfg.Analysis.Sanitizers = mergeLists(cfg.cfg.Analysis.Sanitizers, ocfg.cfg.Analysis.Sanitizers)
	}
	if ocfg.meta.IsDefined("analysis", "oracle") {
		cfg.cfg.Analysis.Oracle = ocfg.cfg.Analysis.Oracle
	}
	if ocfg.meta.IsDefined("analysis", "max_pops") {
		cfg.cfg.Analysis.MaxPops = ocfg.cfg.Analysis.MaxPops
	}

	if ocfg.meta.IsDefined("report", "show_unhandled") {
		cfg.cfg.Report.ShowUnhandled = ocfg.cfg.Report.ShowUnhandled
	}
	if ocfg.meta.IsDefined("report", "color") {
		cfg.cfg.Report.Color = ocfg.cfg.Report.Color
	}
	return cfg
}

func parseFile(path string) (config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if meta.IsDefined("analysis", "oracle") && !oracle.Valid(cfg.Analysis.Oracle) {
		return config{}, fmt.Errorf("%s: %w %q", path, ErrUnknownOracle, cfg.Analysis.Oracle)
	}
	return config{cfg, meta}, nil
}

// parseConfigs parses the configuration files in dir and its ancestors,
// ordered from the defaults to the closest file.
func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		path := filepath.Join(dir, configName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := parseFile(path)
			if err != nil {
				return nil, err
			}
			out = append(out, cfg)
		} else if !os.IsNotExist(err) {
			return nil, err
		}

		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  Default(),
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// This shouldn't happen because we always have at least a
		// default config.
		panic("trying to merge zero configs")
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}

	res := conf.cfg
	res.Analysis.InputSources = normalizeList(res.Analysis.InputSources)
	res.Analysis.TaintSources = normalizeList(res.Analysis.TaintSources)
	res.Analysis.Sanitizers = normalizeList(res.Analysis.Sanitizers)
	return res
}

// Load merges the configuration files found in dir and its ancestors over
// the defaults.
func Load(dir string) (Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, err
	}
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	return mergeConfigs(confs), nil
}

// LoadFile merges a single configuration file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return Config{}, err
	}
	return mergeConfigs([]config{{cfg: Default()}, cfg}), nil
}
