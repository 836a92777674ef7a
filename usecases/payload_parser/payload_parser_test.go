package payload_parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faultline/faultline/models"
)

func TestParseFields(t *testing.T) {
	text := "Serial: 'AB12CD34EF'\nModel: R750-xd\nFailure Message: link down\nnot a field line"

	fields := ParseFields(text)
	assert.Equal(t, "AB12CD34EF", fields["serial"])
	assert.Equal(t, "R750-xd", fields["model"])
	assert.Equal(t, "link down", fields["failure_message"])
	assert.NotContains(t, fields, "not_a_field_line")
}

func TestExtractSerialRequiresLettersAndDigits(t *testing.T) {
	assert.Equal(t, "AB12CD34EF", ExtractSerial("unit AB12CD34EF failed"))
	// All digits or all letters are not serials.
	assert.Empty(t, ExtractSerial("code 1234567890 seen"))
	assert.Empty(t, ExtractSerial("word ABCDEFGHIJ seen"))
	assert.Empty(t, ExtractSerial("short AB12"))
}

func TestExtractPlatformAndConsole(t *testing.T) {
	text := "platform: x86_64\ntelnet cmd: show chassis status"

	assert.Equal(t, "x86_64", ExtractPlatform(text))
	assert.Equal(t, "show chassis status", ExtractConsoleCommand(text))
}

func TestExtractErrorDetailsBlock(t *testing.T) {
	description := "intro\nError Details:\nline one\nline two\n\ntrailer"

	assert.Equal(t, "line one\nline two", ExtractErrorDetails(description))
	assert.Empty(t, ExtractErrorDetails("no section here"))
}

func TestEnrichFillsOnlyEmptyFields(t *testing.T) {
	event := models.ErrorEvent{
		Summary:     "LINK1234XY down",
		Description: "Model: R750\nError Details:\nbad link\n",
		Serial:      "EXPLICIT99",
	}

	enriched := Enrich(event)

	assert.Equal(t, "EXPLICIT99", enriched.Serial)
	assert.Equal(t, "R750", enriched.Model)
	assert.Equal(t, "bad link", enriched.ErrorDetails)
	assert.Contains(t, enriched.CombinedText, "LINK1234XY down")
}
