package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"
)

func TestDefaultFileFormatter_FormatFileOperation(t *testing.T) {
	tests := []struct {
		name string
		info FileInfo
		want string
	}{
		{
			name: "rewritten",
			info: FileInfo{Path: "a/b.xmp", Status: StatusRewritten, Replacements: 1},
			want: "✏️  Rewrote a/b.xmp (1)",
		},
		{
			name: "not_applicable",
			info: FileInfo{Path: "a/c.xmp", Status: StatusNotApplicable},
			want: "⏭️  Skipped a/c.xmp (attribute not found)",
		},
		{
			name: "ignored",
			info: FileInfo{Path: "readme.txt", Status: StatusIgnored},
			want: "🙈 Ignored readme.txt",
		},
		{
			name: "provisioned",
			info: FileInfo{Path: "a", Status: StatusProvisioned, IsDir: true},
			want: "📁 Created a",
		},
		{
			name: "failed",
			info: FileInfo{Path: "a/d.xmp", Op: "read", Status: StatusFailed, Kind: KindPermissionDenied, Error: errors.New("denied")},
			want: "❌ Failed read a/d.xmp [permission-denied]: denied",
		},
	}

	f := NewDefaultFileFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatFileOperation(tt.info))
		})
	}
}

func TestDefaultFileFormatter_FormatProgress(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Equal(t, "✅ Progress: 0/0 (0%)", f.FormatProgress(0, 0))
	assert.Equal(t, "⏳ Progress: 1/4 (25%)", f.FormatProgress(1, 4))
	assert.Equal(t, "✅ Progress: 4/4 (100%)", f.FormatProgress(4, 4))
}

func TestDefaultFileFormatter_FormatError(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Empty(t, f.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "rewritten", StatusRewritten.String())
	assert.Equal(t, "not-applicable", StatusNotApplicable.String())
	assert.Equal(t, "ignored", StatusIgnored.String())
	assert.Equal(t, "provisioned", StatusProvisioned.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
