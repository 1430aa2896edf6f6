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
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/cmd/clusterrc/opts"
	"github.com/walteh/clusterrc/pkg/log"
	"github.com/walteh/clusterrc/pkg/operation"
)

// 📁 NewBatchCmd creates the standalone folder command
func NewBatchCmd(opts *opts.RootOpts) *cobra.Command {
	return newBatchCmd(opts, ptermPrompter{})
}

func newBatchCmd(opts *opts.RootOpts, prompter Prompter) *cobra.Command {
	var (
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "batch [folder] [value]",
		Short: "Rewrite every preset in a folder and pack the result",
		Long: `Batch mirrors the folder into a scratch directory, rewrites the attribute of
every preset to the new value and packs the mirrored tree into a zip named after
the first folder inside it. Missing arguments are prompted for.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "batch").Logger().WithContext(cmd.Context())

			folder, value, err := batchArgs(ctx, prompter, args)
			if err != nil {
				return err
			}

			if output == "" {
				output = opts.Config.OutputDir
			}

			opOpts, err := operation.OptionsFromConfig(opts.Config, value)
			if err != nil {
				return err
			}
			opOpts.DryRun = dryRun
			if dryRun {
				opOpts.Observer = diffObserver(cmd.OutOrStdout())
			}

			op := operation.NewFolderOperation(opOpts, folder, opts.Config.ScratchDir, output)

			opts.Logger.StartRunOperation(ctx, log.RunOperation{
				Source:      folder,
				Value:       value,
				Destination: output,
			})
			defer opts.Logger.EndRunOperation(ctx)

			result, err := operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op)
			if err != nil {
				return errors.Errorf("processing folder: %w", err)
			}

			opts.Logger.LogReport(ctx, result.Report)
			if err := renderSummary(cmd.OutOrStdout(), result); err != nil {
				return err
			}

			return checkFailures(result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for the output archive (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print diffs without writing an archive")

	return cmd
}

// 💬 batchArgs fills the folder and value from args, prompting for whatever is missing.
// Prompted answers are trimmed, explicit arguments are taken as given.
// An empty value is allowed and clears the attribute.
func batchArgs(ctx context.Context, prompter Prompter, args []string) (folder, value string, err error) {
	if len(args) > 0 {
		folder = args[0]
	} else {
		folder, err = prompter.Prompt(ctx, "Folder")
		if err != nil {
			return "", "", errors.Errorf("prompting for folder: %w", err)
		}
	}

	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "", "", errors.New("folder is required")
	}

	if len(args) > 1 {
		return folder, args[1], nil
	}

	value, err = prompter.Prompt(ctx, "New value")
	if err != nil {
		return "", "", errors.Errorf("prompting for value: %w", err)
	}
	return folder, strings.TrimSpace(value), nil
}
