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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

// 📁 FolderOperation rewrites a local folder of presets into an archive
type FolderOperation struct {
	BaseOperation
	Folder     string                 // Folder to read
	ScratchDir string                 // Parent of the per-run scratch root
	OutputDir  string                 // Where the archive is written
	Naming     archive.NamingStrategy // FirstChild when nil
}

// 🏭 NewFolderOperation creates a standalone folder operation
func NewFolderOperation(opts Options, folder, scratchDir, outputDir string) *FolderOperation {
	return &FolderOperation{
		BaseOperation: NewBaseOperation(opts),
		Folder:        folder,
		ScratchDir:    scratchDir,
		OutputDir:     outputDir,
		Naming:        archive.FirstChild{},
	}
}

var _ Operation = (*FolderOperation)(nil)

// 🏃 Execute mirrors <base(folder)> into a fresh scratch root and packs it
func (op *FolderOperation) Execute(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := text.ValidateValue(op.Value); err != nil {
		return nil, err
	}

	folder, err := filepath.Abs(op.Folder)
	if err != nil {
		return nil, errors.Errorf("resolving folder: %w", err)
	}
	info, err := os.Stat(folder)
	if err != nil {
		return nil, errors.Errorf("reading folder: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%w: %s", archive.ErrNotDirectory, folder)
	}

	scratch, err := NewScratch(ctx, op.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer scratch.Close(ctx)

	tree := &TreeOperation{
		BaseOperation: op.BaseOperation,
		Source:        status.New(folder),
		Output:        status.New(scratch.Path(filepath.Base(folder))),
		Provisioning:  ProvisionPerFile,
	}

	result, err := tree.Execute(ctx)
	if err != nil {
		return result, err
	}

	if op.DryRun {
		logger.Debug().Str("folder", folder).Msg("dry run, skipping archive")
		return result, nil
	}

	naming := op.Naming
	if naming == nil {
		naming = archive.FirstChild{}
	}

	result.ArchivePath, err = archive.PackOutput(ctx, naming, scratch.Root, op.OutputDir)
	if err != nil {
		return result, errors.Errorf("exporting archive: %w", err)
	}

	logger.Info().Str("archive", result.ArchivePath).Msg("wrote archive")
	return result, nil
}
