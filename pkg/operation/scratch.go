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
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ScratchPrefix names every per-run scratch root.
const ScratchPrefix = "clusterrc-"

// 🧹 Scratch is a per-run working directory removed by Close
type Scratch struct {
	Root string
}

// 🏭 NewScratch creates <parent>/clusterrc-<uuid>
func NewScratch(ctx context.Context, parent string) (*Scratch, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	root := filepath.Join(parent, ScratchPrefix+uuid.NewString())
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Errorf("creating scratch root: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("scratch", root).Msg("created scratch root")
	return &Scratch{Root: root}, nil
}

// Path joins elem below the scratch root.
func (s *Scratch) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Root}, elem...)...)
}

// 🗑️ Close removes the scratch root and everything below it
func (s *Scratch) Close(ctx context.Context) {
	if err := os.RemoveAll(s.Root); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("scratch", s.Root).Msg("removing scratch root")
	}
}
