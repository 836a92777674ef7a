// Package payload_parser derives structured event fields from the free-form
// summary and description text of a ticket: the "key: value" field block,
// serial number and platform tokens, the error details section, and the
// combined haystack patterns match against.
package payload_parser

import (
	"regexp"
	"strings"

	"github.com/faultline/faultline/models"
)

var (
	serialRegex   = regexp.MustCompile(`\b([A-Z0-9]{10,20})\b`)
	platformRegex = regexp.MustCompile(`(?i)\b(arch|platform)\s*[:=]\s*([A-Za-z0-9_-]+)`)
	consoleRegex  = regexp.MustCompile(`(?i)\b(?:telnet|console)\s+cmd\s*[:=]\s*(.+)`)

	fieldLineRegex = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 _-]{0,40}?)\s*:\s*(.+?)\s*$`)
)

// ParseFields reads the "key: value" lines of a text block into a map with
// normalized snake_case keys. Quotes around values are stripped.
func ParseFields(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		m := fieldLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := normalizeKey(m[1])
		value := stripQuotes(m[2])
		if key == "" || value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	return fields
}

// ExtractSerial finds the first token that looks like a unit serial number:
// 10 to 20 uppercase alphanumerics containing both letters and digits.
func ExtractSerial(text string) string {
	for _, match := range serialRegex.FindAllString(text, -1) {
		if strings.IndexFunc(match, isDigit) >= 0 && strings.IndexFunc(match, isUpper) >= 0 {
			return match
		}
	}
	return ""
}

// ExtractPlatform finds an "arch:"/"platform:" declaration.
func ExtractPlatform(text string) string {
	m := platformRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[2]
}

// ExtractConsoleCommand finds a declared console command line.
func ExtractConsoleCommand(text string) string {
	m := consoleRegex.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return stripQuotes(strings.TrimSpace(m[1]))
}

// ExtractErrorDetails pulls the error details section out of a description:
// everything from the first "error details" heading to the next blank line.
func ExtractErrorDetails(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), "error details") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	var block []string
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		block = append(block, line)
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

// Enrich fills derivable fields of the event that the supplier left empty.
func Enrich(event models.ErrorEvent) models.ErrorEvent {
	if event.CombinedText == "" {
		event.CombinedText = strings.TrimSpace(event.Summary + "\n" + event.Description)
	}

	fields := ParseFields(event.Description)

	if event.Serial == "" {
		if v, ok := fields["serial"]; ok {
			event.Serial = v
		} else {
			event.Serial = ExtractSerial(event.CombinedText)
		}
	}
	if event.Platform == "" {
		event.Platform = ExtractPlatform(event.CombinedText)
	}
	if event.ConsoleCommand == "" {
		event.ConsoleCommand = ExtractConsoleCommand(event.CombinedText)
	}
	if event.ErrorDetails == "" {
		event.ErrorDetails = ExtractErrorDetails(event.Description)
	}
	if event.Model == "" {
		event.Model = fields["model"]
	}
	if event.CustomerIpn == "" {
		event.CustomerIpn = fields["customer_ipn"]
	}
	if event.FailureMessage == "" {
		event.FailureMessage = fields["failure_message"]
	}

	return event
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")
	return strings.ReplaceAll(key, "-", "_")
}

func stripQuotes(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
