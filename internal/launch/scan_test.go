package launch

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlstack/launchpad/internal/console"
)

func TestScanOutput_PublishesLinesAndDetectsURL(t *testing.T) {
	t.Parallel()

	broker := console.NewBroker(16)
	re := regexp.MustCompile(`Running on local URL:\s+(?P<url>https?://\S+)`)
	output := strings.NewReader(
		"loading model\n" +
			"Running on local URL:  http://127.0.0.1:7860\n" +
			"some more output\n")

	var readyURL string
	scanOutput(output, "demo", broker, re, func(url string) { readyURL = url })

	require.Equal(t, "http://127.0.0.1:7860", readyURL)

	history := broker.History()
	require.Len(t, history, 3)
	require.Equal(t, console.EventLine, history[0].Kind)
	require.Equal(t, "loading model", history[0].Text)
	require.Equal(t, "demo", history[0].Package)
}

func TestScanOutput_ReadyFiresOnlyOnce(t *testing.T) {
	t.Parallel()

	broker := console.NewBroker(16)
	re := regexp.MustCompile(`ready at (\S+)`)
	output := strings.NewReader("ready at http://a\nready at http://b\n")

	var urls []string
	scanOutput(output, "demo", broker, re, func(url string) { urls = append(urls, url) })

	require.Equal(t, []string{"http://a"}, urls)
}

func TestScanOutput_NilPatternOnlyPublishes(t *testing.T) {
	t.Parallel()

	broker := console.NewBroker(16)
	scanOutput(strings.NewReader("stderr noise\n"), "demo", broker, nil, nil)

	history := broker.History()
	require.Len(t, history, 1)
	require.Equal(t, "stderr noise", history[0].Text)
}

func TestURLFromMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		line    string
		want    string
	}{
		{
			name:    "named group wins",
			pattern: `(\S+) at (?P<url>https?://\S+)`,
			line:    "ui at http://localhost:8188",
			want:    "http://localhost:8188",
		},
		{
			name:    "first group",
			pattern: `serving (https?://\S+)`,
			line:    "serving http://127.0.0.1:7860",
			want:    "http://127.0.0.1:7860",
		},
		{
			name:    "whole match",
			pattern: `https?://\S+`,
			line:    "open http://localhost:3000 now",
			want:    "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := regexp.MustCompile(tt.pattern)
			match := re.FindStringSubmatch(tt.line)
			require.NotNil(t, match)
			require.Equal(t, tt.want, urlFromMatch(re, match))
		})
	}
}
