package redact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternRedactor(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email and date",
			in:   "Contact: jane@example.com, 01/02/2020",
			want: "Contact: [EMAIL], [DATE]",
		},
		{
			name: "phone number",
			in:   "Call 555-123-4567 tomorrow",
			want: "Call [PHONE] tomorrow",
		},
		{
			name: "ssn",
			in:   "SSN 123-45-6789 on file",
			want: "SSN [SSN] on file",
		},
		{
			name: "clean text untouched",
			in:   "Patient presents with mild fever.",
			want: "Patient presents with mild fever.",
		},
		{
			name: "multiple matches of one category",
			in:   "a@b.com and c@d.org",
			want: "[EMAIL] and [EMAIL]",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Redact(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternRedactorRemovesOriginal(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())

	got, err := r.Redact(context.Background(), "Reach jane.doe+test@example.co.uk for results")
	require.NoError(t, err)
	assert.Contains(t, got, "[EMAIL]")
	assert.NotContains(t, got, "jane.doe+test@example.co.uk")
}

func TestPatternRedactorIdempotent(t *testing.T) {
	r := NewPatternRedactor(DefaultPatterns())
	in := "Contact: jane@example.com, 01/02/2020, SSN 123-45-6789, tel 555-123-4567"

	once, err := r.Redact(context.Background(), in)
	require.NoError(t, err)
	twice, err := r.Redact(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestLoadPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[category]]
name = "MRN"
pattern = '\bMRN[- ]?\d{6,10}\b'
`), 0o600))

	extra, err := LoadPatterns(path)
	require.NoError(t, err)
	require.Len(t, extra, 1)
	assert.Equal(t, "MRN", extra[0].Category)

	r := NewPatternRedactor(append(DefaultPatterns(), extra...))
	got, err := r.Redact(context.Background(), "Record MRN-12345678 updated")
	require.NoError(t, err)
	assert.Equal(t, "Record [MRN] updated", got)
}

func TestLoadPatternsRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[category]]
name = "BROKEN"
pattern = '['
`), 0o600))

	_, err := LoadPatterns(path)
	require.Error(t, err)
}
