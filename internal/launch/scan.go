package launch

import (
	"bufio"
	"io"
	"regexp"

	"github.com/mlstack/launchpad/internal/console"
)

// urlFromMatch extracts the web UI URL from a ready-pattern match: the
// capture group named "url" wins, then the first group, then the whole match.
func urlFromMatch(re *regexp.Regexp, match []string) string {
	for i, name := range re.SubexpNames() {
		if name == "url" && i < len(match) {
			return match[i]
		}
	}
	if len(match) > 1 && match[1] != "" {
		return match[1]
	}
	return match[0]
}

// scanOutput reads console lines from r, publishing each to the broker and
// testing it against the ready pattern. onReady fires at most once.
func scanOutput(r io.Reader, pkg string, broker *console.Broker, re *regexp.Regexp, onReady func(url string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ready := false
	for scanner.Scan() {
		line := scanner.Text()
		broker.Publish(console.Event{
			Kind:    console.EventLine,
			Package: pkg,
			Text:    line,
		})

		if ready || re == nil {
			continue
		}
		if match := re.FindStringSubmatch(line); match != nil {
			ready = true
			onReady(urlFromMatch(re, match))
		}
	}
}
