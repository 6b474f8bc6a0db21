package phase

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shivanshkc/koda/pkg/api"
	"github.com/shivanshkc/koda/pkg/utils/miscutils"
)

// Style selects the layout of the metrics block.
type Style int

const (
	// StylePhased reports prompt processing and generation speeds separately.
	StylePhased Style = iota
	// StyleTotal reports a single rate over the whole request, for callers that do not track phases.
	StyleTotal
)

// labelColors is applied to every label of the metrics block.
var labelColors = text.Colors{text.FgHiBlack}

// WriteReport writes the human-readable metrics block to w.
// Nothing is written when usage is nil: servers that do not report usage get no metrics.
func WriteReport(w io.Writer, style Style, usage *api.Usage, ts Timestamps) error {
	if usage == nil {
		return nil
	}

	lines := []string{
		"",
		line("Tokens used", "%d", usage.TotalTokens),
		line("Prompt tokens", "%d", usage.PromptTokens),
		line("Completion tokens", "%d", usage.CompletionTokens),
		line("Time taken", "%.6f seconds", ts.TotalTime().Seconds()),
	}

	switch style {
	case StyleTotal:
		if rate, ok := Rate(usage.CompletionTokens, ts.TotalTime()); ok {
			lines = append(lines, line("Tokens per second", "%.2f tokens/s", rate))
		}
	default:
		if thinking, ok := ts.ThinkingTime(); ok {
			lines = append(lines, line("Thinking time", "%.6f seconds", thinking.Seconds()))
		}
		if rate, ok := Rate(usage.PromptTokens, ts.PromptProcessingTime()); ok {
			lines = append(lines, line("Prompt processing speed", "%.2f tokens/s", rate))
		}
		if rate, ok := Rate(usage.CompletionTokens, ts.GenerationTime()); ok {
			lines = append(lines, line("Generation speed", "%.2f tokens/s", rate))
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WriteGaps writes the statistics of the gaps between content fragments to w.
func WriteGaps(w io.Writer, gaps Durations) error {
	if len(gaps) == 0 {
		return nil
	}

	s := gaps.Summary()
	_, err := fmt.Fprintln(w, line("Fragment gaps", "n=%d avg=%s p50=%s p95=%s max=%s",
		s.Count,
		miscutils.FormatDuration(s.Avg),
		miscutils.FormatDuration(s.P50),
		miscutils.FormatDuration(s.P95),
		miscutils.FormatDuration(s.Max),
	))
	return err
}

// line renders one "Label: value" line of the metrics block.
func line(label, format string, args ...any) string {
	return labelColors.Sprint(label+":") + " " + fmt.Sprintf(format, args...)
}
