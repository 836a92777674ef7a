package repositories

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/faultline/faultline/models"
)

const snippetTailLines = 40

// FileLogSnippetFetcher serves testcase logs from a directory of
// <testcase>.log files. The snippet is the tail of the full log.
type FileLogSnippetFetcher struct {
	path string
}

func NewFileLogSnippetFetcher(path string) *FileLogSnippetFetcher {
	return &FileLogSnippetFetcher{path: path}
}

func (f *FileLogSnippetFetcher) Fetch(
	ctx context.Context,
	testcase string,
	testsetOverride string,
) (models.LogSnippet, error) {
	name := testcase
	if testsetOverride != "" {
		name = testsetOverride + "_" + testcase
	}

	raw, err := os.ReadFile(filepath.Join(f.path, filepath.Base(name)+".log"))
	if err != nil {
		return models.LogSnippet{}, errors.Wrapf(err, "reading log for testcase %s", testcase)
	}

	fullText := string(raw)
	lines := strings.Split(fullText, "\n")
	tail := lines
	if len(lines) > snippetTailLines {
		tail = lines[len(lines)-snippetTailLines:]
	}

	return models.LogSnippet{
		FullText: fullText,
		Snippet:  strings.Join(tail, "\n"),
		Metadata: map[string]string{"testcase": testcase, "testset": testsetOverride},
	}, nil
}
