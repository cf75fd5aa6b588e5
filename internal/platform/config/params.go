package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// ParamsSource resolves connection parameters for each request. Parameters
// from the environment win. Otherwise the YAML file written by the installer
// is read, so a new file takes effect on the next request.
type ParamsSource struct {
	env  domain.ConnectionParams
	path string
}

func NewParamsSource(cfg *Config) *ParamsSource {
	return &ParamsSource{env: cfg.ConnectionParams(), path: cfg.DBConfigFile}
}

type paramsFile struct {
	Database domain.ConnectionParams `yaml:"database"`
}

// Params never fails on a missing or damaged file; the result is then
// unconfigured and the request is sent to the installer.
func (s *ParamsSource) Params() (domain.ConnectionParams, error) {
	if s.env.Configured() || s.path == "" {
		return s.env, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.env, nil
	}
	if err != nil {
		return domain.ConnectionParams{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var file paramsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("Database config file unparseable, treating as unconfigured", "path", s.path, "error", err)
		return s.env, nil
	}

	params := file.Database
	if params.Port == "" {
		params.Port = s.env.Port
	}
	if params.SSLMode == "" {
		params.SSLMode = s.env.SSLMode
	}
	return params, nil
}
