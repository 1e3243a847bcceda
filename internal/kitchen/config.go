// SPDX-License-Identifier: MPL-2.0

package kitchen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when no Kitchen configuration file exists.
var ErrNoConfig = errors.New("no kitchen configuration found")

// configNames are tried in order, matching Test Kitchen's own lookup.
var configNames = []string{".kitchen.yml", ".kitchen.yaml", "kitchen.yml", "kitchen.yaml"}

type (
	// Config is the subset of .kitchen.yml needed to enumerate instances.
	Config struct {
		Path      string     `yaml:"-"`
		Platforms []Platform `yaml:"platforms"`
		Suites    []Suite    `yaml:"suites"`
	}

	// Platform is an operating system image instances run on.
	Platform struct {
		Name string `yaml:"name"`
	}

	// Suite is a set of tests applied to platforms.
	Suite struct {
		Name     string   `yaml:"name"`
		Includes []string `yaml:"includes"`
		Excludes []string `yaml:"excludes"`
	}

	// Instance is one suite on one platform.
	Instance struct {
		Name     string
		Suite    string
		Platform string
	}
)

// LoadConfig reads the Kitchen configuration in dir.
func LoadConfig(dir string) (*Config, error) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		cfg, err := ParseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Path = path
		return cfg, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNoConfig, dir)
}

// ParseConfig decodes Kitchen YAML.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	for i, p := range cfg.Platforms {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("platforms[%d]: name is required", i)
		}
	}
	for i, s := range cfg.Suites {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("suites[%d]: name is required", i)
		}
	}
	return &cfg, nil
}

// Instances returns every suite/platform pair, suites first, honoring each
// suite's includes and excludes.
func (c *Config) Instances() []Instance {
	var instances []Instance
	for _, s := range c.Suites {
		for _, p := range c.Platforms {
			if len(s.Includes) > 0 && !slices.Contains(s.Includes, p.Name) {
				continue
			}
			if slices.Contains(s.Excludes, p.Name) {
				continue
			}
			instances = append(instances, Instance{
				Name:     InstanceName(s.Name, p.Name),
				Suite:    s.Name,
				Platform: p.Name,
			})
		}
	}
	return instances
}

// InstanceName builds Kitchen's instance name for a suite and platform:
// "_", "," and "/" become "-" and dots are dropped.
func InstanceName(suite, platform string) string {
	name := suite + "-" + platform
	name = strings.NewReplacer("_", "-", ",", "-", "/", "-", ".", "").Replace(name)
	return name
}
