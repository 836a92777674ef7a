package text_extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faultline/faultline/models"
)

func TestExtractEmptySourceIsTotal(t *testing.T) {
	specs := []models.TextExtract{
		{},
		{TextSelection: models.TextSelection{BetweenStartContains: "a", BetweenEndContains: "b"}},
		{TextSelection: models.TextSelection{LineFilter: "x"}, Take: models.TakeAll},
		{TextSelection: models.TextSelection{Inline: &models.InlineExtraction{AfterContains: ":"}}},
	}

	for _, spec := range specs {
		assert.Empty(t, Extract("", spec))
	}

	withDefault := models.TextExtract{Default: "n/a"}
	assert.Equal(t, []string{"n/a"}, Extract("", withDefault))
}

func TestExtractNarrowing(t *testing.T) {
	source := "preamble\nBEGIN DUMP\nline one\nline two\nEND DUMP\ntrailer"

	spec := models.TextExtract{
		TextSelection: models.TextSelection{
			BetweenStartContains: "begin dump",
			BetweenEndContains:   "end dump",
		},
	}

	got := Extract(source, spec)
	assert.Equal(t, []string{"BEGIN DUMP\nline one\nline two\nEND DUMP"}, got)
}

func TestExtractMissingMarkerUsesWholeSource(t *testing.T) {
	source := "alpha\nbeta"

	spec := models.TextExtract{
		TextSelection: models.TextSelection{
			BetweenStartContains: "nope",
			BetweenEndContains:   "beta",
			LineFilter:           "alpha",
		},
	}

	assert.Equal(t, []string{"alpha"}, Extract(source, spec))
}

func TestExtractLineFilterAndTake(t *testing.T) {
	source := "ERROR: first\ninfo: skip\nERROR: second\nERROR: third"

	spec := models.TextExtract{
		TextSelection: models.TextSelection{LineFilter: "error:"},
	}

	spec.Take = models.TakeFirst
	assert.Equal(t, []string{"ERROR: first"}, Extract(source, spec))

	spec.Take = models.TakeLast
	assert.Equal(t, []string{"ERROR: third"}, Extract(source, spec))

	spec.Take = models.TakeAll
	assert.Equal(t, []string{"ERROR: first", "ERROR: second", "ERROR: third"}, Extract(source, spec))
}

func TestInlineTakesPrecedenceOverBlock(t *testing.T) {
	source := "BEGIN\nserial = ABC123 ;\nother\nEND"

	spec := models.TextExtract{
		TextSelection: models.TextSelection{
			BetweenStartContains: "BEGIN",
			BetweenEndContains:   "END",
			Inline: &models.InlineExtraction{
				StartContains: "serial =",
				EndContains:   ";",
			},
		},
	}

	assert.Equal(t, []string{"ABC123"}, Extract(source, spec))
}

func TestInlineAfterContains(t *testing.T) {
	source := "status: FAILED extra"

	spec := models.TextExtract{
		TextSelection: models.TextSelection{
			Inline: &models.InlineExtraction{AfterContains: "status:", AfterChars: 7},
		},
	}

	assert.Equal(t, []string{"FAILED"}, Extract(source, spec))

	spec.Inline = &models.InlineExtraction{AfterContains: "status:"}
	assert.Equal(t, []string{"FAILED extra"}, Extract(source, spec))
}

func TestSelectOutputZeroSelectionReturnsTrimmedOutput(t *testing.T) {
	assert.Equal(t, "all of it", SelectOutput("  all of it \n", models.TextSelection{}))
}

func TestSelectOutputContextLines(t *testing.T) {
	output := "one\ntwo\nMATCH here\nfour\nfive"

	sel := models.TextSelection{LineFilter: "match", LinesBefore: 1, LinesAfter: 1}
	assert.Equal(t, "two\nMATCH here\nfour", SelectOutput(output, sel))
}

func TestSelectOutputOverlappingContextDeduplicates(t *testing.T) {
	output := "a\nX\nb\nX\nc"

	sel := models.TextSelection{LineFilter: "x", LinesBefore: 1, LinesAfter: 1}
	assert.Equal(t, "a\nX\nb\nX\nc", SelectOutput(output, sel))
}
