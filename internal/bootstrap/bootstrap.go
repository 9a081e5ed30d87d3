// Package bootstrap loads a local catalogue file so the client can
// serve compiled rules before its first successful poll. JSON files are
// parsed directly; YAML files are converted and pushed through the same
// parser so both formats share one set of semantics.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nyxflag/flagsdk/internal/catalogue"
)

// Load reads and parses a bootstrap catalogue from path. The format is
// chosen by extension: .yaml/.yml is YAML, everything else is JSON.
func Load(path string) (*catalogue.Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("bootstrap file %s: %w", path, err)
		}
	}
	cat, err := catalogue.Parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("bootstrap file %s: %w", path, err)
	}
	return cat, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
