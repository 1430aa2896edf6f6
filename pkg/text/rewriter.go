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

// Package text rewrites attribute assignments inside preset documents.
package text

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// DefaultAttribute is the preset attribute that controls group membership.
const DefaultAttribute = "crs:Cluster"

// ErrInvalidValue is returned when a replacement value would corrupt the attribute.
var ErrInvalidValue = errors.New("invalid attribute value")

// 📄 ReplacementResult holds the outcome of rewriting one document
type ReplacementResult struct {
	OriginalContent  []byte
	ModifiedContent  []byte
	ReplacementCount int
	WasModified      bool
	// Applicable is false when the attribute marker never appears.
	Applicable bool
}

// 🔍 Diff renders a human readable diff between the original and modified content
func (r *ReplacementResult) Diff() string {
	if !r.WasModified {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(r.OriginalContent), string(r.ModifiedContent), false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}

// 🔄 ClusterRewriter replaces the quoted value of a single attribute
type ClusterRewriter struct {
	attribute string
	marker    string
	pattern   *regexp.Regexp
}

// 🏭 NewClusterRewriter creates a rewriter for the crs:Cluster attribute
func NewClusterRewriter() *ClusterRewriter {
	r, _ := NewAttributeRewriter(DefaultAttribute)
	return r
}

// 🏭 NewAttributeRewriter creates a rewriter for an arbitrary key="value" attribute
func NewAttributeRewriter(attribute string) (*ClusterRewriter, error) {
	if attribute == "" || strings.ContainsAny(attribute, "\"= \t\r\n") {
		return nil, errors.Errorf("invalid attribute name %q", attribute)
	}
	return &ClusterRewriter{
		attribute: attribute,
		marker:    attribute + `="`,
		pattern:   regexp.MustCompile(regexp.QuoteMeta(attribute) + `=".*?"`),
	}, nil
}

// Attribute returns the attribute name this rewriter targets.
func (r *ClusterRewriter) Attribute() string {
	return r.attribute
}

// ValidateValue rejects values that cannot live inside a double-quoted attribute.
func ValidateValue(value string) error {
	if strings.ContainsAny(value, "\"\r\n") {
		return errors.Errorf("%w: %q contains a quote or line break", ErrInvalidValue, value)
	}
	return nil
}

// ✏️ Rewrite reads content and replaces every assignment of the attribute with value.
// Content without the attribute marker is returned untouched with Applicable unset.
func (r *ClusterRewriter) Rewrite(ctx context.Context, content io.Reader, value string) (*ReplacementResult, error) {
	if err := ValidateValue(value); err != nil {
		return nil, err
	}

	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
	}

	current := string(originalContent)
	if !strings.Contains(current, r.marker) {
		return result, nil
	}
	result.Applicable = true

	replacement := r.attribute + `="` + value + `"`
	result.ReplacementCount = len(r.pattern.FindAllStringIndex(current, -1))
	updated := r.pattern.ReplaceAllLiteralString(current, replacement)

	result.ModifiedContent = []byte(updated)
	result.WasModified = updated != current
	return result, nil
}
