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

package operation_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/operation"
	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

func TestFolderOperation(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	folder := filepath.Join(dir, "My Presets")
	writeTree(t, folder, map[string]string{
		"Portrait/a.xmp": bluePreset,
		"Portrait/b.txt": "x",
		"c.xmp":          `crs:Cluster="Blue"`,
		"d.xmp":          plainPreset,
	})
	scratch := filepath.Join(dir, "scratch")
	out := filepath.Join(dir, "out")

	result, err := operation.NewFolderOperation(operation.Options{Value: "Red"}, folder, scratch, out).Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "My Presets.zip"), result.ArchivePath, "archive is named after the folder")
	got := readZip(t, result.ArchivePath)
	assert.Equal(t, map[string]string{
		"Portrait/":      "",
		"Portrait/a.xmp": strings.Replace(bluePreset, `"Blue"`, `"Red"`, 1),
		"c.xmp":          `crs:Cluster="Red"`,
	}, got)

	assert.Equal(t, 2, result.Report.Counts().Rewritten)
	assert.Empty(t, scratchRoots(t, scratch), "scratch root is removed")

	assert.Equal(t, bluePreset, readTree(t, folder)["Portrait/a.xmp"], "input is never modified")
}

func TestFolderOperation_EmptyFolder(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	folder := filepath.Join(dir, "Nothing")
	require.NoError(t, os.MkdirAll(folder, 0755))

	result, err := operation.NewFolderOperation(operation.Options{Value: "Red"}, folder, dir, dir).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Nothing.zip"), result.ArchivePath)
	assert.Empty(t, readZip(t, result.ArchivePath))
}

func TestFolderOperation_DryRun(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	folder := filepath.Join(dir, "presets")
	writeTree(t, folder, map[string]string{"a.xmp": bluePreset})

	var diffs int
	op := operation.NewFolderOperation(operation.Options{
		Value:  "Red",
		DryRun: true,
		Observer: func(ctx context.Context, path string, result *text.ReplacementResult) {
			diffs++
		},
	}, folder, dir, dir)

	result, err := op.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.ArchivePath)
	assert.Equal(t, 1, diffs)
	assert.NoFileExists(t, filepath.Join(dir, "presets.zip"))
}

func TestFolderOperation_Errors(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	_, err := operation.NewFolderOperation(operation.Options{Value: "Red"}, filepath.Join(dir, "missing"), dir, dir).Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, status.KindMissingPath, status.Classify(err))

	file := filepath.Join(dir, "a.xmp")
	require.NoError(t, os.WriteFile(file, []byte(bluePreset), 0644))
	_, err = operation.NewFolderOperation(operation.Options{Value: "Red"}, file, dir, dir).Execute(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, archive.ErrNotDirectory))

	_, err = operation.NewFolderOperation(operation.Options{Value: `"`}, dir, dir, dir).Execute(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, text.ErrInvalidValue))
}
