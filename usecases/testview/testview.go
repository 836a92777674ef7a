// Package testview enriches a winning rule with log-viewer output and picks
// the first matching case from an ordered case list.
package testview

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases/text_extract"
	"github.com/faultline/faultline/utils"
)

// LogSnippetFetcher is the port to the external log-viewing system.
type LogSnippetFetcher interface {
	Fetch(ctx context.Context, testcase string, testsetOverride string) (models.LogSnippet, error)
}

const snippetCacheSize = 64

// Usecase fetches snippets through the port with a small per-process cache:
// one cycle frequently asks for the same testcase log for several tickets.
type Usecase struct {
	fetcher LogSnippetFetcher
	cache   *lru.Cache[string, models.LogSnippet]
}

func NewUsecase(fetcher LogSnippetFetcher) *Usecase {
	cache, _ := lru.New[string, models.LogSnippet](snippetCacheSize)
	return &Usecase{fetcher: fetcher, cache: cache}
}

// Fetch resolves the snippet for a spec, preferring the spec's explicit
// testcase over the event's failing testcase. A fetch failure degrades to an
// empty snippet carrying the error text.
func (uc *Usecase) Fetch(ctx context.Context, event models.ErrorEvent, spec models.TestViewSpec) models.LogSnippet {
	testcase := spec.Testcase
	if testcase == "" {
		testcase = event.Testcase
	}
	if testcase == "" {
		return models.LogSnippet{}
	}

	key := testcase + "|" + spec.TestsetOverride
	if snippet, ok := uc.cache.Get(key); ok {
		return snippet
	}

	snippet, err := uc.fetcher.Fetch(ctx, testcase, spec.TestsetOverride)
	if err != nil {
		utils.LoggerFromContext(ctx).WarnContext(ctx, "log snippet fetch failed",
			"testcase", testcase, "error", err.Error())
		return models.LogSnippet{Error: errors.Wrap(err, "fetching log snippet").Error()}
	}

	uc.cache.Add(key, snippet)
	return snippet
}

// CaseSelection is the outcome of evaluating a TestView spec.
type CaseSelection struct {
	// Matched is true when a declared case matched.
	Matched bool

	// Suppress is true when cases were declared and none matched: the whole
	// comment must be withheld for this cycle.
	Suppress bool

	CommentTemplate string
	Selected        []string
}

// SelectCase evaluates the ordered case list against the fetched text,
// first match wins. With no cases declared, the spec's default selection and
// template apply.
func SelectCase(spec models.TestViewSpec, event models.ErrorEvent, snippet models.LogSnippet) CaseSelection {
	if len(spec.Cases) == 0 {
		return CaseSelection{
			CommentTemplate: spec.CommentTemplate,
			Selected:        applySelect(spec.Select, sourceText(spec.Source, snippet)),
		}
	}

	for _, c := range spec.Cases {
		source := c.Source
		if source == "" {
			source = spec.Source
		}
		text := sourceText(source, snippet)

		if !caseMatches(c, text) {
			continue
		}

		selectSpec := c.Select
		if selectSpec == nil {
			selectSpec = spec.Select
		}
		template := c.CommentTemplate
		if template == "" {
			template = spec.CommentTemplate
		}

		return CaseSelection{
			Matched:         true,
			CommentTemplate: template,
			Selected:        applySelect(selectSpec, text),
		}
	}

	return CaseSelection{Suppress: true}
}

func caseMatches(c models.TestViewCase, text string) bool {
	lowered := strings.ToLower(text)

	if c.WhenContains != "" && !strings.Contains(lowered, strings.ToLower(c.WhenContains)) {
		return false
	}
	if c.WhenNotContains != "" && strings.Contains(lowered, strings.ToLower(c.WhenNotContains)) {
		return false
	}
	if c.WhenRegex != nil && !c.WhenRegex.MatchString(text) {
		return false
	}
	return c.WhenContains != "" || c.WhenNotContains != "" || c.WhenRegex != nil
}

func sourceText(source models.SnippetSource, snippet models.LogSnippet) string {
	switch source {
	case models.SnippetSourceLogText:
		return snippet.FullText
	case models.SnippetSourceSnippet:
		return snippet.Snippet
	default:
		if snippet.Snippet != "" {
			return snippet.Snippet
		}
		return snippet.FullText
	}
}

func applySelect(spec *models.TextExtract, text string) []string {
	if spec == nil {
		return nil
	}
	return text_extract.Extract(text, *spec)
}
