/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/bunplus/types"
)

// FileConfig is the YAML layout of a scope file:
//
//	scopes:
//	  users:
//	    default:
//	      deleted_at: null
//	    active:
//	      active: true
type FileConfig struct {
	Scopes map[string]map[string]map[string]any `yaml:"scopes"`
}

// LoadFile reads scope tables keyed by database table name.
func LoadFile(path string) (map[string]Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("scope file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope file: %w", err)
	}

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse scope file: %w", err)
	}

	tables := make(map[string]Table, len(config.Scopes))
	for tableName, scopes := range config.Scopes {
		table := make(Table, len(scopes))
		for name, conds := range scopes {
			table[name] = types.Conditions(conds).Clone()
			if table[name] == nil {
				table[name] = types.Conditions{}
			}
		}
		tables[tableName] = table
	}
	return tables, nil
}

// LoadFile registers every table found in the scope file and returns the
// table names it registered.
func (r *Registry) LoadFile(path string) ([]string, error) {
	tables, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for name, table := range tables {
		r.RegisterTable(name, table)
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ExportFile writes the table-keyed scopes of the registry into a YAML file,
// creating directories as needed.
func (r *Registry) ExportFile(outputPath string) error {
	config := FileConfig{Scopes: map[string]map[string]map[string]any{}}
	r.mu.RLock()
	for tableName, table := range r.byName {
		scopes := make(map[string]map[string]any, len(table))
		for name, conds := range table {
			scopes[name] = map[string]any(conds)
		}
		config.Scopes[tableName] = scopes
	}
	r.mu.RUnlock()

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to serialize scopes: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write scope file: %w", err)
	}
	return nil
}
