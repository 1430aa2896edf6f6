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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/cmd/clusterrc/opts"
	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/log"
	"github.com/walteh/clusterrc/pkg/operation"
)

// 📦 NewProcessCmd creates the archive command
func NewProcessCmd(opts *opts.RootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "process <archive> <value>",
		Short: "Rewrite every preset in a zip archive",
		Long: `Process unpacks the archive, rewrites the attribute of every preset to the new
value and writes the edited tree as a new zip into the output directory.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "process").Logger().WithContext(cmd.Context())
			archivePath, value := args[0], args[1]

			if output == "" {
				output = opts.Config.OutputDir
			}

			opOpts, err := operation.OptionsFromConfig(opts.Config, value)
			if err != nil {
				return err
			}

			op := operation.NewArchiveOperation(opOpts, archivePath, opts.Config.ScratchDir, output)
			op.Naming = archive.Fixed{Name: opts.Config.ArchiveName}
			op.MaxEntryBytes = opts.Config.MaxEntryBytes

			opts.Logger.StartRunOperation(ctx, log.RunOperation{
				Source:      archivePath,
				Value:       value,
				Destination: output,
				IsArchive:   true,
			})
			defer opts.Logger.EndRunOperation(ctx)

			result, err := operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op)
			if err != nil {
				return errors.Errorf("processing archive: %w", err)
			}

			opts.Logger.LogReport(ctx, result.Report)
			if err := renderSummary(cmd.OutOrStdout(), result); err != nil {
				return err
			}

			return checkFailures(result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for the output archive (default from config)")

	return cmd
}
