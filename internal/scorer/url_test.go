package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/About",
			want: "https://example.com/About",
		},
		{
			name: "strips www prefix",
			in:   "https://www.example.com/team",
			want: "https://example.com/team",
		},
		{
			name: "removes trailing slash",
			in:   "https://example.com/about/",
			want: "https://example.com/about",
		},
		{
			name: "keeps root slash",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "strips tracking parameters",
			in:   "https://example.com/news?utm_source=x&utm_campaign=y&ref=tw",
			want: "https://example.com/news",
		},
		{
			name: "keeps identifying parameters",
			in:   "https://sec.gov/cgi-bin/browse-edgar?cik=0000320193&utm_source=x",
			want: "https://sec.gov/cgi-bin/browse-edgar?cik=0000320193",
		},
		{
			name: "defaults missing scheme to https",
			in:   "//example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  https://example.com/a  ",
			want: "https://example.com/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CanonicalURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalURL_Errors(t *testing.T) {
	t.Parallel()

	_, err := CanonicalURL("not a url at all")
	assert.Error(t, err, "no host")

	_, err = CanonicalURL("/relative/path")
	assert.Error(t, err)

	_, err = CanonicalURL("http://%zz")
	assert.Error(t, err)
}

func TestCanonicalURL_DeduplicatesVariants(t *testing.T) {
	t.Parallel()

	a, err := CanonicalURL("https://www.example.com/about/?utm_source=news")
	require.NoError(t, err)
	b, err := CanonicalURL("HTTPS://example.com/about")
	require.NoError(t, err)
	assert.Equal(t, a, b, "variant URLs collapse to one key")
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", Domain("https://www.Example.com/page"))
	assert.Equal(t, "sub.example.com", Domain("https://sub.example.com"))
	assert.Equal(t, "", Domain("not a url"))
	assert.Equal(t, "", Domain("/relative"))
}
