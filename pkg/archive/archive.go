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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultMaxEntryBytes caps a single extracted entry. Presets are a few KiB.
const DefaultMaxEntryBytes int64 = 64 << 20

var (
	ErrInvalidArchive = errors.New("invalid zip archive")
	ErrUnsafePath     = errors.New("archive entry escapes destination")
	ErrEntryTooLarge  = errors.New("archive entry too large")
	ErrNotDirectory   = errors.New("source is not a directory")
)

// 📦 Options configures archive intake
type Options struct {
	MaxEntryBytes int64 // Per-entry size limit, DefaultMaxEntryBytes when zero
}

func (o Options) maxEntryBytes() int64 {
	if o.MaxEntryBytes <= 0 {
		return DefaultMaxEntryBytes
	}
	return o.MaxEntryBytes
}

// 📥 Unpack extracts the zip at archivePath into destDir
func Unpack(ctx context.Context, archivePath, destDir string, opts Options) error {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(archivePath); err != nil {
		return errors.Errorf("opening archive: %w", err)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && reader != nil) {
		if errors.Is(err, fs.ErrPermission) {
			return errors.Errorf("opening archive: %w", err)
		}
		return errors.Errorf("%w: %s: %v", ErrInvalidArchive, filepath.Base(archivePath), err)
	}
	defer reader.Close()

	dest, err := filepath.Abs(destDir)
	if err != nil {
		return errors.Errorf("resolving destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	logger.Debug().Str("archive", archivePath).Str("dest", dest).Int("entries", len(reader.File)).Msg("unpacking archive")

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("unpacking cancelled: %w", err)
		}
		if err := extractFile(f, dest, opts.maxEntryBytes()); err != nil {
			return errors.Errorf("extracting %s: %w", f.Name, err)
		}
	}

	return nil
}

// 🔒 entryTarget resolves an entry name below dest, rejecting anything that escapes it
func entryTarget(dest, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", errors.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func extractFile(f *zip.File, dest string, limit int64) error {
	target, err := entryTarget(dest, f.Name)
	if err != nil {
		return err
	}

	mode := f.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		return os.MkdirAll(target, 0755)
	case !mode.IsRegular():
		// symlinks and devices are not presets
		return nil
	}

	if f.UncompressedSize64 > uint64(limit) {
		return errors.Errorf("%w: %d bytes", ErrEntryTooLarge, f.UncompressedSize64)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	src, err := f.Open()
	if err != nil {
		return errors.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Errorf("creating file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(src, limit+1))
	if err != nil {
		_ = out.Close()
		return errors.Errorf("writing file: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing file: %w", err)
	}
	if n > limit {
		return errors.Errorf("%w: more than %d bytes", ErrEntryTooLarge, limit)
	}

	return nil
}

// 📤 Pack writes <outDir>/<baseName>.zip from the contents of sourceDir.
// Entries are written in lexical order. An empty sourceDir yields an empty archive.
func Pack(ctx context.Context, sourceDir, outDir, baseName string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if baseName == "" || strings.ContainsAny(baseName, `/\`) {
		return "", errors.Errorf("invalid archive name %q", baseName)
	}

	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", errors.Errorf("reading source: %w", err)
	}
	if !info.IsDir() {
		return "", errors.Errorf("%w: %s", ErrNotDirectory, sourceDir)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", errors.Errorf("creating output directory: %w", err)
	}

	archivePath := filepath.Join(outDir, baseName+".zip")
	tmp, err := os.CreateTemp(outDir, "."+baseName+"-*.zip.tmp")
	if err != nil {
		return "", errors.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	entries, err := writeZip(ctx, tmp, sourceDir, tmpPath)
	if err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Errorf("closing temp archive: %w", err)
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		return "", errors.Errorf("renaming temp archive: %w", err)
	}

	logger.Debug().Str("archive", archivePath).Int("entries", entries).Msg("packed archive")
	return archivePath, nil
}

func writeZip(ctx context.Context, w io.Writer, sourceDir, skip string) (int, error) {
	zw := zip.NewWriter(w)
	entries := 0

	err := filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == sourceDir || p == skip {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			_, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name + "/",
				Method:   zip.Store,
				Modified: info.ModTime(),
			})
			entries++
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		h, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		h.Name = name
		h.Method = zip.Deflate
		if h.Modified.IsZero() {
			h.Modified = time.Now()
		}

		wr, err := zw.CreateHeader(h)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(wr, f)
		_ = f.Close()
		entries++
		return err
	})
	if err != nil {
		return 0, errors.Errorf("writing archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return 0, errors.Errorf("finalizing archive: %w", err)
	}
	return entries, nil
}
