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
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clusterrc/cmd/clusterrc/opts"
	"github.com/walteh/clusterrc/pkg/server"
)

// 🌐 NewServeCmd creates the served mode command
func NewServeCmd(opts *opts.RootOpts) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive rewrite over HTTP",
		Long: `Serve accepts multipart uploads on POST /upload with a zip in the "file" field
and the new value in the "new_value" field, and answers with the edited archive.
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := *opts.Config
			if listen != "" {
				cfg.Listen = listen
			}

			srv, err := server.New(server.Options{Config: &cfg})
			if err != nil {
				return errors.Errorf("creating server: %w", err)
			}

			pterm.Info.Printfln("listening on %s", cfg.Listen)
			if err := srv.ListenAndServe(ctx); err != nil {
				return errors.Errorf("serving: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (default from config)")

	return cmd
}
