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
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

// 🏗️ Provisioning decides how mirrored output directories are created
type Provisioning int

const (
	// ProvisionPerDirectory clears and recreates the mirror of every visited directory.
	ProvisionPerDirectory Provisioning = iota
	// ProvisionPerFile creates the output root once, then each file's parent without clearing.
	ProvisionPerFile
)

func (p Provisioning) String() string {
	switch p {
	case ProvisionPerFile:
		return "per-file"
	default:
		return "per-directory"
	}
}

type walkEntry struct {
	rel   string
	isDir bool
	size  int64
}

// 🌳 TreeOperation mirrors a source tree into an output tree, rewriting presets on the way
type TreeOperation struct {
	BaseOperation
	Source       *status.Manager // Rooted at the tree being read
	Output       *status.Manager // Rooted at the mirror, collects the report
	Provisioning Provisioning
}

// 🏭 NewTreeOperation creates a tree operation reading from source and writing to output
func NewTreeOperation(opts Options, source, output *status.Manager, provisioning Provisioning) *TreeOperation {
	return &TreeOperation{
		BaseOperation: NewBaseOperation(opts),
		Source:        source,
		Output:        output,
		Provisioning:  provisioning,
	}
}

var _ Operation = (*TreeOperation)(nil)

// 🏃 Execute walks the source tree. Per-path failures land in the report;
// only an invalid value, an unreadable root, root provisioning or cancellation return an error.
func (op *TreeOperation) Execute(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := text.ValidateValue(op.Value); err != nil {
		return nil, err
	}

	root := op.Source.BaseDir()
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("reading source tree: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("reading source tree: %s is not a directory", root)
	}

	if op.Provisioning == ProvisionPerFile {
		if err := op.Output.EnsureExists(ctx, "."); err != nil {
			return nil, errors.Errorf("provisioning output root: %w", err)
		}
	}

	entries, err := op.collect(ctx, root)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("source", root).
		Str("output", op.Output.BaseDir()).
		Str("provisioning", op.Provisioning.String()).
		Int("entries", len(entries)).
		Msg("walking tree")

	op.Output.StartOperation(ctx, len(entries))
	defer op.Output.FinishOperation(ctx)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return &Result{Report: op.Output.Report(ctx)}, errors.Errorf("walk cancelled: %w", err)
		}

		if entry.isDir {
			if err := op.processDir(ctx, entry); err != nil {
				return &Result{Report: op.Output.Report(ctx)}, err
			}
		} else {
			op.processFile(ctx, entry)
		}
		op.Output.UpdateProgress(ctx, i+1)
	}

	return &Result{Report: op.Output.Report(ctx)}, nil
}

// 📂 collect lists the tree in lexical order, recording unreadable paths as failures
func (op *TreeOperation) collect(ctx context.Context, root string) ([]walkEntry, error) {
	var entries []walkEntry

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			rel, _ := filepath.Rel(root, p)
			op.Output.TrackFile(ctx, rel, status.FileInfo{
				Op:     "walk",
				Status: status.StatusFailed,
				Kind:   status.Classify(err),
				IsDir:  d != nil && d.IsDir(),
				Error:  err,
			})
			// the directory itself was already listed, its contents are lost
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		if rel != "." && op.shouldIgnore(ctx, rel) {
			op.Output.TrackFile(ctx, rel, status.FileInfo{
				Op:     "walk",
				Status: status.StatusIgnored,
				IsDir:  d.IsDir(),
			})
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := walkEntry{rel: rel, isDir: d.IsDir()}
		if !entry.isDir {
			if fi, err := d.Info(); err == nil {
				entry.size = fi.Size()
			}
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking source tree: %w", err)
	}

	return entries, nil
}

// 📁 processDir mirrors one directory. A failure on the output root is fatal.
func (op *TreeOperation) processDir(ctx context.Context, entry walkEntry) error {
	if op.Provisioning != ProvisionPerDirectory {
		return nil
	}

	if err := op.Output.EnsureClean(ctx, entry.rel); err != nil {
		if entry.rel == "." {
			return errors.Errorf("provisioning output root: %w", err)
		}
		op.Output.TrackFile(ctx, entry.rel, status.FileInfo{
			Op:     "provision",
			Status: status.StatusFailed,
			Kind:   status.Classify(err),
			IsDir:  true,
			Error:  err,
		})
		return nil
	}

	// a walk failure on this directory outlives its provisioning
	if prev, err := op.Output.GetFileInfo(ctx, entry.rel); err == nil && prev.Status == status.StatusFailed {
		return nil
	}

	op.Output.TrackFile(ctx, entry.rel, status.FileInfo{
		Op:     "provision",
		Status: status.StatusProvisioned,
		IsDir:  true,
	})
	return nil
}

// 📄 processFile provisions the file's parent when needed, then rewrites presets
func (op *TreeOperation) processFile(ctx context.Context, entry walkEntry) {
	if op.Provisioning == ProvisionPerFile {
		if err := op.Output.EnsureExists(ctx, filepath.Dir(entry.rel)); err != nil {
			op.Output.TrackFile(ctx, entry.rel, status.FileInfo{
				Op:     "provision",
				Status: status.StatusFailed,
				Kind:   status.Classify(err),
				Size:   entry.size,
				Error:  err,
			})
			return
		}
	}

	if !op.isPreset(entry.rel) {
		op.Output.TrackFile(ctx, entry.rel, status.FileInfo{
			Op:     "rewrite",
			Status: status.StatusIgnored,
			Size:   entry.size,
		})
		return
	}

	info := op.RewriteFile(ctx, entry.rel)
	if info.Size == 0 {
		info.Size = entry.size
	}
	op.Output.TrackFile(ctx, entry.rel, info)
}

// ✏️ RewriteFile reads rel from the source tree, rewrites it and writes the mirror.
// Failures are classified into the returned info rather than returned.
func (op *TreeOperation) RewriteFile(ctx context.Context, rel string) status.FileInfo {
	content, err := op.Source.ReadFile(ctx, rel)
	if err != nil {
		return failed("read", err)
	}

	result, err := op.Rewriter.Rewrite(ctx, bytes.NewReader(content), op.Value)
	if err != nil {
		return failed("rewrite", err)
	}

	if !result.Applicable {
		return status.FileInfo{
			Op:     "rewrite",
			Status: status.StatusNotApplicable,
			Size:   int64(len(content)),
		}
	}

	if op.Observer != nil {
		op.Observer(ctx, rel, result)
	}

	if !op.DryRun {
		if err := op.Output.WriteFile(ctx, rel, result.ModifiedContent); err != nil {
			return failed("write", err)
		}
	}

	return status.FileInfo{
		Op:           "rewrite",
		Status:       status.StatusRewritten,
		Replacements: result.ReplacementCount,
		Size:         int64(len(result.ModifiedContent)),
	}
}

func failed(op string, err error) status.FileInfo {
	return status.FileInfo{
		Op:     op,
		Status: status.StatusFailed,
		Kind:   status.Classify(err),
		Error:  err,
	}
}
