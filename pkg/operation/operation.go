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

package operation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/config"
	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

// 🎯 Operation is one unit of batch work
type Operation interface {
	Execute(ctx context.Context) (*Result, error)
}

// 📋 Result is what an operation produced
type Result struct {
	Report      *status.Report
	ArchivePath string // Empty when nothing was packed
}

// 🔎 Observer sees every applicable rewrite before it is written
type Observer func(ctx context.Context, path string, result *text.ReplacementResult)

// 🔧 Options contains the settings shared by every operation
type Options struct {
	// Value is the new attribute value
	Value string
	// Rewriter performs the replacement, crs:Cluster when nil
	Rewriter *text.ClusterRewriter
	// Extension selects preset files, case-sensitive
	Extension string
	// IgnorePatterns are doublestar globs matched against slash separated relative paths
	IgnorePatterns []string
	// DryRun computes results without writing output or packing
	DryRun bool
	// Observer is called for each applicable rewrite, may be nil
	Observer Observer
}

// 🏭 OptionsFromConfig builds operation options for value from a loaded config
func OptionsFromConfig(cfg *config.Config, value string) (Options, error) {
	rewriter, err := text.NewAttributeRewriter(cfg.Attribute)
	if err != nil {
		return Options{}, errors.Errorf("creating rewriter: %w", err)
	}
	return Options{
		Value:          value,
		Rewriter:       rewriter,
		Extension:      cfg.Extension,
		IgnorePatterns: cfg.IgnorePatterns,
	}, nil
}

// 📦 BaseOperation holds the options and helpers every operation shares
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation fills defaults into opts
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Rewriter == nil {
		opts.Rewriter = text.NewClusterRewriter()
	}
	if opts.Extension == "" {
		opts.Extension = config.DefaultExtension
	}
	return BaseOperation{Options: opts}
}

// 🔍 isPreset reports whether name carries the preset extension
func (op *BaseOperation) isPreset(name string) bool {
	return strings.HasSuffix(name, op.Extension)
}

// 🔍 shouldIgnore checks if a relative path matches an ignore pattern
func (op *BaseOperation) shouldIgnore(ctx context.Context, rel string) bool {
	logger := zerolog.Ctx(ctx)
	path := filepath.ToSlash(rel)

	for _, pattern := range op.IgnorePatterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("path", path).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			logger.Debug().Str("file", path).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}

	return false
}
