package main

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/esmresolve/modresolve/internal/jsonc"
)

// config is the optional modresolve.jsonc file a served directory may
// carry to override the resolver's defaults. Grounded on esm.sh's
// server/config.go (goccy/go-json-decoded config struct), with the
// comment-tolerant loading esm.sh's CLI config commands expect from a
// hand-edited file.
type config struct {
	Port       int      `json:"port"`
	MainFields []string `json:"mainFields"`
	Conditions []string `json:"conditions"`
	Dedupe     []string `json:"dedupe"`
}

// loadConfig reads path, stripping JSONC comments/trailing commas before
// decoding. A missing file is not an error: it yields a zero-valued
// config so callers fall back to the resolver's built-in defaults.
func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(jsonc.StripJSONC(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
