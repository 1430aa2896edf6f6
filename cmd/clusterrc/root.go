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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/cmd/clusterrc/commands"
	"github.com/walteh/clusterrc/cmd/clusterrc/opts"
	"github.com/walteh/clusterrc/pkg/config"
	"github.com/walteh/clusterrc/pkg/log"
)

var (
	configFile string
	debugMode  bool
)

// 🌳 newRootCmd wires the shared flags and every subcommand
func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "clusterrc",
		Short: "Rewrite the crs:Cluster attribute across folders and archives of presets",
		Long: `clusterrc rewrites the crs:Cluster attribute of every .xmp preset in a folder
or zip archive and packs the edited presets into a new archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zlog := setupLogging()
			ctx := zlog.WithContext(cmd.Context())

			cfg, err := newRootOpts(ctx, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}

			rootOpts.Config = cfg
			rootOpts.Logger = log.NewWithZerolog(cmd.OutOrStdout(), zlog)
			cmd.SetContext(ctx)
			return nil
		},
	}

	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewBatchCmd(rootOpts),
		commands.NewProcessCmd(rootOpts),
		commands.NewServeCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// 🔧 newRootOpts loads the config. A missing default config file is not an error.
func newRootOpts(ctx context.Context, explicit bool) (*config.Config, error) {
	load := config.LoadConfigOrDefault
	if explicit {
		load = config.LoadConfig
	}

	cfg, err := load(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Str("location", cfg.Location()).Msg("loaded config")
	return cfg, nil
}

func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "enable debug logging")
}

func setupLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if debugMode {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}
