// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML configuration file. Command-line
// flags override anything set here.
type fileConfig struct {
	DB string `yaml:"db"`
	AI struct {
		EmbeddingHost  string `yaml:"embedding_host"`
		EmbeddingModel string `yaml:"embedding_model"`
		EmbeddingDim   int    `yaml:"embedding_dim"`
		GeneratorHost  string `yaml:"generator_host"`
		GeneratorModel string `yaml:"generator_model"`
	} `yaml:"ai"`
}

// loadFileConfig reads the YAML config at path. A missing path returns an
// empty config, not an error.
func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
