package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sharedtable/mtdynamo/table"
	"gopkg.in/yaml.v3"
)

// Config holds the physical table set and AWS settings for mtddb.
// Loaded from mtddb.yaml.
type Config struct {
	// PhysicalTables is the fixed table set virtual schemas map onto.
	PhysicalTables []table.TableDefinition `yaml:"physicalTables"`

	// Region overrides the AWS region from the environment.
	Region string `yaml:"region,omitempty"`

	// AssumeRoleArn, if set, is assumed via STS before calling DynamoDB.
	AssumeRoleArn string `yaml:"assumeRoleArn,omitempty"`
}

// LoadConfig searches for mtddb.yaml starting from the current directory and
// walking up to the filesystem root.
func LoadConfig() (Config, error) {
	var cfg Config

	configPath := findConfigFile()
	if configPath == "" {
		return cfg, fmt.Errorf("no mtddb.yaml found in this directory or any parent")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configPath, err)
	}
	if len(cfg.PhysicalTables) == 0 {
		return cfg, fmt.Errorf("%s declares no physical tables", configPath)
	}
	return cfg, nil
}

// findConfigFile searches for mtddb.yaml walking up from current directory.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "mtddb.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
