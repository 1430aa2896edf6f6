// Copyright 2025 walteh LLC
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

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/text"
)

const (
	DefaultFile           = ".clusterrc"
	DefaultExtension      = ".xmp"
	DefaultListen         = ":8080"
	DefaultMaxUploadBytes = 256 << 20

	// DownloadArchive offers the result under the archive's own name.
	DownloadArchive = "archive"
	// DownloadUpload offers the result under the uploaded file's name.
	DownloadUpload = "upload"
)

// DefaultIgnorePatterns skips the resource-fork folders macOS adds to zips.
var DefaultIgnorePatterns = []string{"__MACOSX/**"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	ScratchDir     string   `json:"scratch_dir,omitempty" yaml:"scratch_dir,omitempty" hcl:"scratch_dir,optional"`         // Parent of per-run scratch roots
	OutputDir      string   `json:"output_dir,omitempty" yaml:"output_dir,omitempty" hcl:"output_dir,optional"`            // Where output archives are written
	Extension      string   `json:"extension,omitempty" yaml:"extension,omitempty" hcl:"extension,optional"`               // Preset file suffix, case-sensitive
	Attribute      string   `json:"attribute,omitempty" yaml:"attribute,omitempty" hcl:"attribute,optional"`               // Attribute to rewrite
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"` // Doublestar globs skipped during the walk
	ArchiveName    string   `json:"archive_name,omitempty" yaml:"archive_name,omitempty" hcl:"archive_name,optional"`      // Served mode archive base name
	DownloadName   string   `json:"download_name,omitempty" yaml:"download_name,omitempty" hcl:"download_name,optional"`   // archive | upload
	Listen         string   `json:"listen,omitempty" yaml:"listen,omitempty" hcl:"listen,optional"`                        // Served mode listen address
	MaxUploadBytes int64    `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes,omitempty" hcl:"max_upload_bytes,optional"`
	MaxEntryBytes  int64    `json:"max_entry_bytes,omitempty" yaml:"max_entry_bytes,omitempty" hcl:"max_entry_bytes,optional"`

	location string
}

// 🏭 Default returns a validated configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	// defaults always validate
	_ = cfg.Validate()
	return cfg
}

// Location returns the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate fills defaults and checks the configuration
func (cfg *Config) Validate() error {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if !strings.HasPrefix(cfg.Extension, ".") || len(cfg.Extension) < 2 {
		return errors.Errorf("extension %q must start with a dot", cfg.Extension)
	}

	if cfg.Attribute == "" {
		cfg.Attribute = text.DefaultAttribute
	}
	if _, err := text.NewAttributeRewriter(cfg.Attribute); err != nil {
		return errors.Errorf("attribute: %w", err)
	}

	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = append([]string(nil), DefaultIgnorePatterns...)
	}
	for _, pattern := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	if cfg.ArchiveName == "" {
		cfg.ArchiveName = archive.DefaultFixedName
	}
	if strings.ContainsAny(cfg.ArchiveName, `/\`) {
		return errors.Errorf("archive_name %q must not contain path separators", cfg.ArchiveName)
	}

	switch cfg.DownloadName {
	case "":
		cfg.DownloadName = DownloadArchive
	case DownloadArchive, DownloadUpload:
	default:
		return errors.Errorf("download_name must be %q or %q, got %q", DownloadArchive, DownloadUpload, cfg.DownloadName)
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	if cfg.MaxUploadBytes < 0 {
		return errors.Errorf("max_upload_bytes must not be negative")
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxEntryBytes < 0 {
		return errors.Errorf("max_entry_bytes must not be negative")
	}
	if cfg.MaxEntryBytes == 0 {
		cfg.MaxEntryBytes = archive.DefaultMaxEntryBytes
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s *%s -> %s (scratch %s)", cfg.Attribute, cfg.Extension, cfg.OutputDir, cfg.ScratchDir)
}
