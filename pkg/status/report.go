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

// 🧮 Counts tallies report entries by outcome
type Counts struct {
	Rewritten     int
	NotApplicable int
	Ignored       int
	Directories   int
	Failed        int
}

// 📋 Report is the ordered set of per-path results from one run
type Report struct {
	Files []FileInfo
}

// Counts tallies the report by status.
func (r *Report) Counts() Counts {
	var c Counts
	if r == nil {
		return c
	}
	for _, f := range r.Files {
		switch f.Status {
		case StatusRewritten:
			c.Rewritten++
		case StatusNotApplicable:
			c.NotApplicable++
		case StatusIgnored:
			c.Ignored++
		case StatusProvisioned:
			c.Directories++
		case StatusFailed:
			c.Failed++
		}
	}
	return c
}

// Failed returns the entries that failed, in report order.
func (r *Report) Failed() []FileInfo {
	return r.filter(StatusFailed)
}

// Rewritten returns the entries whose attribute was replaced.
func (r *Report) Rewritten() []FileInfo {
	return r.filter(StatusRewritten)
}

// HasFailures reports whether any path failed.
func (r *Report) HasFailures() bool {
	return r.Counts().Failed > 0
}

func (r *Report) filter(s FileStatus) []FileInfo {
	if r == nil {
		return nil
	}
	var out []FileInfo
	for _, f := range r.Files {
		if f.Status == s {
			out = append(out, f)
		}
	}
	return out
}
