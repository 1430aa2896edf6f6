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

package archive

import (
	"context"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// DefaultFixedName is the archive name used by served mode.
const DefaultFixedName = "edited_presets"

const (
	NamingFirstChild = "first_child"
	NamingFixed      = "fixed"
)

// ErrEmptyOutput is returned when FirstChild finds no directory to name the archive after.
var ErrEmptyOutput = errors.New("output root has no subdirectory")

// 🏷️ NamingStrategy decides what an output archive is called and which directory it holds
type NamingStrategy interface {
	// Resolve returns the archive base name and the directory whose contents are packed.
	Resolve(ctx context.Context, outputRoot string) (name string, sourceDir string, err error)
	String() string
}

// FirstChild names the archive after the lexicographically first subdirectory of the
// output root and packs that subdirectory's contents.
type FirstChild struct{}

func (FirstChild) Resolve(ctx context.Context, outputRoot string) (string, string, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		return "", "", errors.Errorf("listing output root: %w", err)
	}
	// os.ReadDir sorts by file name
	for _, e := range entries {
		if e.IsDir() {
			return e.Name(), filepath.Join(outputRoot, e.Name()), nil
		}
	}
	return "", "", errors.Errorf("%w: %s", ErrEmptyOutput, outputRoot)
}

func (FirstChild) String() string {
	return NamingFirstChild
}

// Fixed names the archive with a literal name and packs the whole output root.
type Fixed struct {
	Name string
}

func (f Fixed) Resolve(ctx context.Context, outputRoot string) (string, string, error) {
	name := f.Name
	if name == "" {
		name = DefaultFixedName
	}
	return name, outputRoot, nil
}

func (f Fixed) String() string {
	return NamingFixed + ":" + f.Name
}

// 🔍 ParseNamingStrategy builds a strategy from its config form
func ParseNamingStrategy(kind, name string) (NamingStrategy, error) {
	switch kind {
	case NamingFirstChild:
		return FirstChild{}, nil
	case NamingFixed, "":
		return Fixed{Name: name}, nil
	default:
		return nil, errors.Errorf("unknown naming strategy %q", kind)
	}
}

// 📤 PackOutput resolves the archive name with strategy and packs into outDir
func PackOutput(ctx context.Context, strategy NamingStrategy, outputRoot, outDir string) (string, error) {
	name, sourceDir, err := strategy.Resolve(ctx, outputRoot)
	if err != nil {
		return "", errors.Errorf("resolving archive name: %w", err)
	}
	return Pack(ctx, sourceDir, outDir, name)
}
