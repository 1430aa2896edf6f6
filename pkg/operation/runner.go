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
)

// 🏃 OperationRunner executes operations
type OperationRunner struct {
	logger *zerolog.Logger
	async  bool
}

// 🏗️ NewRunner creates a new runner. Async runners return as soon as ctx is done.
func NewRunner(logger *zerolog.Logger, async bool) *OperationRunner {
	return &OperationRunner{
		logger: logger,
		async:  async,
	}
}

// 🏃 Run executes an operation
func (r *OperationRunner) Run(ctx context.Context, op Operation) (*Result, error) {
	if r.logger != nil {
		ctx = r.logger.WithContext(ctx)
	}
	if r.async {
		return r.runAsync(ctx, op)
	}
	return r.runSync(ctx, op)
}

// 🔄 runSync runs an operation synchronously
func (r *OperationRunner) runSync(ctx context.Context, op Operation) (*Result, error) {
	return op.Execute(ctx)
}

type outcome struct {
	result *Result
	err    error
}

// ⚡ runAsync runs an operation asynchronously
func (r *OperationRunner) runAsync(ctx context.Context, op Operation) (*Result, error) {
	done := make(chan outcome, 1)

	go func() {
		result, err := op.Execute(ctx)
		if err != nil {
			err = errors.Errorf("executing operation: %w", err)
		}
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		zerolog.Ctx(ctx).Debug().Err(ctx.Err()).Msg("operation abandoned")
		return nil, errors.Errorf("operation cancelled: %w", ctx.Err())
	case out := <-done:
		return out.result, out.err
	}
}
