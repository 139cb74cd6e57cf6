package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

// CfgPath is a file path in the config. Environment variables and a
// leading ~ are expanded, and relative paths are taken from the directory
// of the config file.
type CfgPath string

// UnmarshalBase is the directory relative paths resolve against. Parse sets
// it to the directory of the file it reads.
var UnmarshalBase string

func (c *CfgPath) UnmarshalYAML(b []byte) error {
	var path string

	err := yaml.Unmarshal(b, &path)
	if err != nil {
		return err
	}

	resolved, err := resolvePath(path, UnmarshalBase)
	if err != nil {
		return err
	}
	*c = CfgPath(resolved)
	return nil
}

func resolvePath(path, base string) (string, error) {
	if path == "" {
		return "", nil
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not expand %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path), nil
}
