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

package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/pkg/operation"
	"github.com/walteh/clusterrc/pkg/text"
)

// ErrFilesFailed is returned when a run finished but some files could not be processed.
var ErrFilesFailed = errors.New("some files failed")

// 💬 Prompter asks the user for a missing argument
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Prompt(ctx context.Context, label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.Show(label)
}

// 🖨️ diffObserver prints the diff of every applicable rewrite to w
func diffObserver(w io.Writer) operation.Observer {
	return func(ctx context.Context, path string, result *text.ReplacementResult) {
		fmt.Fprintf(w, "--- %s (%d replaced)\n", path, result.ReplacementCount)
		if diff := result.Diff(); diff != "" {
			fmt.Fprintln(w, diff)
		}
	}
}

// 📊 renderSummary writes a table of the run's counts and output archive
func renderSummary(w io.Writer, result *operation.Result) error {
	counts := result.Report.Counts()

	archive := result.ArchivePath
	if archive == "" {
		archive = "(none)"
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Rewritten", "Not applicable", "Ignored", "Directories", "Failed", "Archive"},
		{
			strconv.Itoa(counts.Rewritten),
			strconv.Itoa(counts.NotApplicable),
			strconv.Itoa(counts.Ignored),
			strconv.Itoa(counts.Directories),
			strconv.Itoa(counts.Failed),
			archive,
		},
	}).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}

	_, err = fmt.Fprintln(w, table)
	return err
}

// ✅ checkFailures turns a partially failed run into an error so the exit code is non-zero
func checkFailures(result *operation.Result) error {
	if result.Report.HasFailures() {
		return errors.Errorf("%w: %d of %d entries", ErrFilesFailed, result.Report.Counts().Failed, len(result.Report.Files))
	}
	return nil
}
