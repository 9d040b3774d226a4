package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported policy file format")
	ErrMissingKey        = errors.New("missing required policy key")
	ErrInvalidPort       = errors.New("server_port must be between 1 and 65535")
	ErrInvalidTimeout    = errors.New("server_startup_timeout_seconds must not be negative")
)

// Policy is the administrator-supplied whitelist and policy document.
// Pointer fields are required keys.
type Policy struct {
	AllowedDirectories          []string `json:"allowed_directories" yaml:"allowed_directories" toml:"allowed_directories"`
	MaxFileSizeMB               *int64   `json:"max_file_size_mb" yaml:"max_file_size_mb" toml:"max_file_size_mb"`
	SupportedExtensions         []string `json:"supported_extensions" yaml:"supported_extensions" toml:"supported_extensions"`
	AllowDelete                 *bool    `json:"allow_delete" yaml:"allow_delete" toml:"allow_delete"`
	IncludeHidden               bool     `json:"include_hidden" yaml:"include_hidden" toml:"include_hidden"`
	ServerHost                  string   `json:"server_host" yaml:"server_host" toml:"server_host"`
	ServerPort                  int      `json:"server_port" yaml:"server_port" toml:"server_port"`
	ServerStartupTimeoutSeconds int      `json:"server_startup_timeout_seconds" yaml:"server_startup_timeout_seconds" toml:"server_startup_timeout_seconds"`
}

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// LoadPolicy reads and strictly decodes a policy file. The format is chosen
// by extension: .json, .yaml/.yml or .toml.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(filepath.Ext(path), data)
}

// ParsePolicy decodes data in the format named by ext and checks required
// keys and server settings. Directory checks happen in Settings.
func ParsePolicy(ext string, data []byte) (*Policy, error) {
	var p Policy
	var err error

	switch strings.ToLower(ext) {
	case ".json":
		err = strictJSON.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(data, &p, yaml.Strict())
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode policy file: %w", err)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	switch {
	case p.AllowedDirectories == nil:
		return fmt.Errorf("%w: allowed_directories", ErrMissingKey)
	case p.MaxFileSizeMB == nil:
		return fmt.Errorf("%w: max_file_size_mb", ErrMissingKey)
	case p.SupportedExtensions == nil:
		return fmt.Errorf("%w: supported_extensions", ErrMissingKey)
	case p.AllowDelete == nil:
		return fmt.Errorf("%w: allow_delete", ErrMissingKey)
	}
	if p.ServerPort != 0 && (p.ServerPort < 1 || p.ServerPort > 65535) {
		return ErrInvalidPort
	}
	if p.ServerStartupTimeoutSeconds < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Settings builds the immutable access settings, validating every directory
// and extension.
func (p *Policy) Settings() (*access.Settings, error) {
	s, err := access.NewSettings(access.Options{
		AllowedDirectories:  p.AllowedDirectories,
		MaxFileSizeMB:       *p.MaxFileSizeMB,
		SupportedExtensions: p.SupportedExtensions,
		AllowDelete:         *p.AllowDelete,
		IncludeHidden:       p.IncludeHidden,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return s, nil
}
