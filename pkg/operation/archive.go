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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

// 📦 ArchiveOperation unpacks a zip, rewrites its presets and packs the result
type ArchiveOperation struct {
	BaseOperation
	ArchivePath   string                 // Zip to read
	ScratchDir    string                 // Parent of the per-run scratch root
	OutputDir     string                 // Where the archive is written
	Naming        archive.NamingStrategy // Fixed("edited_presets") when nil
	MaxEntryBytes int64
}

// 🏭 NewArchiveOperation creates a served-mode archive operation
func NewArchiveOperation(opts Options, archivePath, scratchDir, outputDir string) *ArchiveOperation {
	return &ArchiveOperation{
		BaseOperation: NewBaseOperation(opts),
		ArchivePath:   archivePath,
		ScratchDir:    scratchDir,
		OutputDir:     outputDir,
		Naming:        archive.Fixed{Name: archive.DefaultFixedName},
	}
}

var _ Operation = (*ArchiveOperation)(nil)

// 🏃 Execute runs unpack, walk and pack inside a fresh scratch root
func (op *ArchiveOperation) Execute(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := text.ValidateValue(op.Value); err != nil {
		return nil, err
	}

	scratch, err := NewScratch(ctx, op.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer scratch.Close(ctx)

	source := scratch.Path("source")
	if err := archive.Unpack(ctx, op.ArchivePath, source, archive.Options{MaxEntryBytes: op.MaxEntryBytes}); err != nil {
		return nil, errors.Errorf("importing archive: %w", err)
	}

	tree := &TreeOperation{
		BaseOperation: op.BaseOperation,
		Source:        status.New(source),
		Output:        status.New(scratch.Path("temp")),
		Provisioning:  ProvisionPerDirectory,
	}

	result, err := tree.Execute(ctx)
	if err != nil {
		return result, err
	}

	if op.DryRun {
		return result, nil
	}

	naming := op.Naming
	if naming == nil {
		naming = archive.Fixed{}
	}

	result.ArchivePath, err = archive.PackOutput(ctx, naming, tree.Output.BaseDir(), op.OutputDir)
	if err != nil {
		return result, errors.Errorf("exporting archive: %w", err)
	}

	logger.Info().
		Str("input", op.ArchivePath).
		Str("archive", result.ArchivePath).
		Int("rewritten", result.Report.Counts().Rewritten).
		Msg("processed archive")
	return result, nil
}

// 📦 Process is process(archivePath, value) -> output archive with default options
func Process(ctx context.Context, archivePath, value, scratchDir, outputDir string) (*Result, error) {
	return NewArchiveOperation(Options{Value: value}, archivePath, scratchDir, outputDir).Execute(ctx)
}
