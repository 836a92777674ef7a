// Package text_extract implements the fragment extraction language shared by
// text extracts, command output selection and log snippet selection. Every
// function is total: malformed or unresolvable specifications degrade to
// empty results, never to an error.
package text_extract

import (
	"strings"

	"github.com/faultline/faultline/models"
)

// Extract evaluates one TextExtract against its source text and returns the
// resulting fragments after the take mode is applied. The default value, when
// configured, stands in for an empty result.
func Extract(source string, spec models.TextExtract) []string {
	fragments := Fragments(source, spec.TextSelection)
	return ApplyTake(fragments, spec.TakeMode(), spec.Default)
}

// Fragments runs the selection pipeline: narrow to the marker-delimited
// block, filter lines, then apply inline extraction. Inline results take
// precedence over the block result when both are configured.
func Fragments(source string, sel models.TextSelection) []string {
	working := narrowBetween(source, sel.BetweenStartContains, sel.BetweenEndContains)

	lines := splitLines(working)
	if sel.LineFilter != "" {
		lines = filterLines(lines, sel.LineFilter)
	}

	if sel.Inline != nil {
		return inlineFragments(lines, *sel.Inline)
	}

	if sel.LineFilter != "" {
		return trimNonEmpty(lines)
	}

	trimmed := strings.TrimSpace(working)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}

// ApplyTake reduces fragments according to the take mode. An empty result
// yields the default value when one is set.
func ApplyTake(fragments []string, take models.TakeMode, defaultValue string) []string {
	if len(fragments) == 0 {
		if defaultValue != "" {
			return []string{defaultValue}
		}
		return nil
	}

	switch take {
	case models.TakeAll:
		return fragments
	case models.TakeLast:
		return fragments[len(fragments)-1:]
	default:
		return fragments[:1]
	}
}

// SelectOutput selects lines from command output for the render context. A
// zero selection returns the trimmed output unchanged. Matching lines carry
// their configured context lines, deduplicated in source order.
func SelectOutput(output string, sel models.TextSelection) string {
	if sel.IsZero() {
		return strings.TrimSpace(output)
	}

	working := narrowBetween(output, sel.BetweenStartContains, sel.BetweenEndContains)
	lines := splitLines(working)

	if sel.Inline != nil {
		candidates := lines
		if sel.LineFilter != "" {
			candidates = filterLines(lines, sel.LineFilter)
		}
		return strings.Join(inlineFragments(candidates, *sel.Inline), "\n")
	}

	if sel.LineFilter == "" {
		return strings.TrimSpace(working)
	}

	selected := make([]int, 0, len(lines))
	seen := make(map[int]bool)
	for i, line := range lines {
		if !containsFold(line, sel.LineFilter) {
			continue
		}
		from := max(0, i-sel.LinesBefore)
		to := min(len(lines)-1, i+sel.LinesAfter)
		for j := from; j <= to; j++ {
			if !seen[j] {
				seen[j] = true
				selected = append(selected, j)
			}
		}
	}

	out := make([]string, 0, len(selected))
	for _, i := range selected {
		out = append(out, lines[i])
	}
	return strings.Join(out, "\n")
}

// narrowBetween slices the smallest block starting at the first start marker
// and ending at the first end marker after it, both lines included. A missing
// marker leaves the source untouched.
func narrowBetween(source, startMarker, endMarker string) string {
	if startMarker == "" || endMarker == "" {
		return source
	}

	start := indexFold(source, startMarker)
	if start < 0 {
		return source
	}
	rest := source[start+len(startMarker):]
	end := indexFold(rest, endMarker)
	if end < 0 {
		return source
	}
	return source[start : start+len(startMarker)+end+len(endMarker)]
}

func inlineFragments(lines []string, inline models.InlineExtraction) []string {
	fragments := make([]string, 0, len(lines))
	for _, line := range lines {
		if fragment, ok := inlineFragment(line, inline); ok {
			fragments = append(fragments, fragment)
		}
	}
	return fragments
}

func inlineFragment(line string, inline models.InlineExtraction) (string, bool) {
	if inline.StartContains != "" && inline.EndContains != "" {
		start := indexFold(line, inline.StartContains)
		if start < 0 {
			return "", false
		}
		rest := line[start+len(inline.StartContains):]
		end := indexFold(rest, inline.EndContains)
		if end < 0 {
			return "", false
		}
		fragment := strings.TrimSpace(rest[:end])
		return fragment, fragment != ""
	}

	if inline.AfterContains != "" {
		start := indexFold(line, inline.AfterContains)
		if start < 0 {
			return "", false
		}
		rest := line[start+len(inline.AfterContains):]
		if inline.AfterChars > 0 && inline.AfterChars < len(rest) {
			rest = rest[:inline.AfterChars]
		}
		fragment := strings.TrimSpace(rest)
		return fragment, fragment != ""
	}

	return "", false
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func filterLines(lines []string, substring string) []string {
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if containsFold(line, substring) {
			filtered = append(filtered, line)
		}
	}
	return filtered
}

func trimNonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return indexFold(haystack, needle) >= 0
}

func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}
