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

package status

import (
	"io/fs"

	"gitlab.com/tozd/go/errors"
)

// ⚠️ ErrorKind classifies a per-file or per-directory failure
type ErrorKind int

const (
	KindNone             ErrorKind = iota
	KindMissingPath                // file or directory not found
	KindPermissionDenied           // read, write or create denied
	KindUnexpectedIO               // any other I/O failure
)

var (
	ErrMissingPath      = errors.New("missing path")
	ErrPermissionDenied = errors.New("permission denied")
)

// String returns a string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMissingPath:
		return "missing-path"
	case KindPermissionDenied:
		return "permission-denied"
	default:
		return "unexpected-io"
	}
}

// 🔍 Classify maps an error onto the failure taxonomy
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrMissingPath):
		return KindMissingPath
	case errors.Is(err, fs.ErrPermission), errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	default:
		return KindUnexpectedIO
	}
}
