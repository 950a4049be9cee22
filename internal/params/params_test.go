package params

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"long pair", "--format best", map[string]string{"format": "best"}},
		{"short pair", "-f best", map[string]string{"f": "best"}},
		{"mixed whitespace", "  --proxy\thttp://h:1 \n -o  out.mp4 ", map[string]string{"proxy": "http://h:1", "o": "out.mp4"}},
		{"hyphenated name", "--merge-output-format mkv", map[string]string{"merge-output-format": "mkv"}},
		{"switches", "--no-playlist --embed-subs", map[string]string{"no-playlist": "", "embed-subs": ""}},
		{"switch then pair", "--embed-subs --sub-langs en", map[string]string{"embed-subs": "", "sub-langs": "en"}},
		{"inline value", "--retries=3", map[string]string{"retries": "3"}},
		{"negative value", "--playlist-end -1", map[string]string{"playlist-end": "-1"}},
		{"garbage", "hello world", map[string]string{}},
		{"lone dashes", "-- - ---", map[string]string{}},
		{"stray value ignored", "stray --limit-rate 1M tail", map[string]string{"limit-rate": "1M"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs(t *testing.T) {
	got := Args(map[string]string{"f": "best", "embed-subs": "", "proxy": "socks5://x"})
	assert.Equal(t, []string{"--embed-subs", "-f", "best", "--proxy", "socks5://x"}, got)
}

func TestParseArgsRoundTrip(t *testing.T) {
	in := map[string]string{"format": "bv*+ba", "x": "", "retries": "5"}
	assert.Equal(t, in, Parse(strings.Join(Args(in), " ")))
}

func TestBind(t *testing.T) {
	fs := pflag.NewFlagSet("extra", pflag.ContinueOnError)
	format := fs.StringP("format", "f", "", "")
	proxy := fs.String("proxy", "", "")
	noPlaylist := fs.Bool("no-playlist", false, "")

	rest, err := Bind(fs, map[string]string{
		"f":           "bestaudio",
		"proxy":       "http://127.0.0.1:1080",
		"no-playlist": "",
		"embed-subs":  "",
	})
	require.NoError(t, err)

	assert.Equal(t, "bestaudio", *format)
	assert.Equal(t, "http://127.0.0.1:1080", *proxy)
	assert.True(t, *noPlaylist)
	assert.Equal(t, map[string]string{"embed-subs": ""}, rest)
}

func TestBindReportsBadValues(t *testing.T) {
	fs := pflag.NewFlagSet("extra", pflag.ContinueOnError)
	retries := fs.Int("retries", 10, "")
	format := fs.String("format", "", "")

	rest, err := Bind(fs, map[string]string{"retries": "many", "format": "best"})
	require.Error(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, 10, *retries)
	assert.Equal(t, "best", *format)
}

func TestBindKeepsPreviousValueOnError(t *testing.T) {
	fs := pflag.NewFlagSet("extra", pflag.ContinueOnError)
	skip := fs.Bool("skip-download", true, "")
	fs.Bool("extract-audio", false, "")
	require.NoError(t, fs.Set("extract-audio", "true"))

	_, err := Bind(fs, map[string]string{"skip-download": "nope", "extract-audio": "yes"})
	require.Error(t, err)
	assert.True(t, *skip)
	got, err := fs.GetBool("extract-audio")
	require.NoError(t, err)
	assert.True(t, got)
}
