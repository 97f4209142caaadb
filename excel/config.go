package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/genelet/sheetcast/internal/lang"
)

// Config is the file form of the reader and writer options, written in
// YAML
//
//	sheet: Orders
//	limit: 1000
//	header_map:
//	  Order No: ID
//	ignore: ["tmp_*"]
//
// or, in a file ending in .hcl, HCL with the expression functions
// available
//
//	sheet      = "Orders"
//	header_map = { "Order No" = "ID" }
//	base_dir   = pathexpand("~/books")
type Config struct {
	Sheet           string            `yaml:"sheet" hcl:"sheet,optional"`
	Limit           int               `yaml:"limit" hcl:"limit,optional"`
	Headers         []string          `yaml:"headers" hcl:"headers,optional"`
	HeaderMap       map[string]string `yaml:"header_map" hcl:"header_map,optional"`
	Parallel        int               `yaml:"parallel" hcl:"parallel,optional"`
	Default         *string           `yaml:"default" hcl:"default,optional"`
	MaxRowsPerSheet int               `yaml:"max_rows_per_sheet" hcl:"max_rows_per_sheet,optional"`
	Ignore          []string          `yaml:"ignore" hcl:"ignore,optional"`
	BaseDir         string            `yaml:"base_dir" hcl:"base_dir,optional"`
}

// LoadConfig reads a config file. A leading ~ in path is expanded.
func LoadConfig(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if strings.EqualFold(filepath.Ext(expanded), ".hcl") {
		ctx := &hcl.EvalContext{Functions: lang.CoreFunctions(filepath.Dir(expanded))}
		err = hclsimple.Decode(expanded, data, ctx, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.BaseDir != "" {
		if cfg.BaseDir, err = homedir.Expand(cfg.BaseDir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Options converts the config. Zero values leave the defaults alone.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Limit != 0 {
		opts = append(opts, WithLimit(c.Limit))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, WithHeaders(c.Headers...))
	}
	if len(c.HeaderMap) > 0 {
		opts = append(opts, WithHeaderMap(c.HeaderMap))
	}
	if c.Parallel != 0 {
		opts = append(opts, WithParallel(c.Parallel))
	}
	if c.Default != nil {
		opts = append(opts, WithDefault(*c.Default))
	}
	if c.MaxRowsPerSheet != 0 {
		opts = append(opts, WithMaxRowsPerSheet(c.MaxRowsPerSheet))
	}
	if len(c.Ignore) > 0 {
		opts = append(opts, WithIgnore(c.Ignore...))
	}
	if c.BaseDir != "" {
		opts = append(opts, WithBaseDir(c.BaseDir))
	}
	return opts
}
