package repositories

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases/payload_parser"
	"github.com/faultline/faultline/utils"
)

// FileRecordSupplier yields one ErrorEvent per JSON document in a directory,
// in file name order. The documents use the tracker export shape; fields the
// export leaves out are derived from the ticket text.
type FileRecordSupplier struct {
	path string
}

func NewFileRecordSupplier(path string) *FileRecordSupplier {
	return &FileRecordSupplier{path: path}
}

func (s *FileRecordSupplier) ListRecords(ctx context.Context) ([]models.ErrorEvent, error) {
	logger := utils.LoggerFromContext(ctx)

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "reading records directory")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	events := make([]models.ErrorEvent, 0, len(files))
	for _, file := range files {
		raw, err := os.ReadFile(filepath.Join(s.path, file))
		if err != nil {
			return nil, errors.Wrapf(err, "reading record file %s", file)
		}
		if !gjson.ValidBytes(raw) {
			logger.WarnContext(ctx, "skipping invalid record document", "file", file)
			continue
		}
		event := AdaptRecordDocument(raw)
		if event.TicketKey == "" {
			logger.WarnContext(ctx, "skipping record without ticket key", "file", file)
			continue
		}
		events = append(events, payload_parser.Enrich(event))
	}
	return events, nil
}

// AdaptRecordDocument maps one raw tracker document onto the event schema.
func AdaptRecordDocument(raw []byte) models.ErrorEvent {
	doc := gjson.ParseBytes(raw)

	event := models.ErrorEvent{
		TicketKey:           doc.Get("key").String(),
		Summary:             doc.Get("fields.summary").String(),
		Description:         doc.Get("fields.description").String(),
		Status:              doc.Get("fields.status.name").String(),
		Assignee:            doc.Get("fields.assignee.name").String(),
		Reporter:            doc.Get("fields.reporter.name").String(),
		TesterEmail:         doc.Get("fields.tester_email").String(),
		Model:               doc.Get("fields.model").String(),
		Serial:              doc.Get("fields.serial").String(),
		RackSerial:          doc.Get("fields.rack_serial").String(),
		Platform:            doc.Get("fields.platform").String(),
		CustomerIpn:         doc.Get("fields.customer_ipn").String(),
		Testcase:            doc.Get("fields.testcase").String(),
		FailedTestset:       doc.Get("fields.failed_testset").String(),
		LatestTestset:       doc.Get("fields.latest_testset").String(),
		FailureMessage:      doc.Get("fields.failure_message").String(),
		LatestCommentAuthor: doc.Get("fields.comments.@reverse.0.author").String(),
		LatestCommentText:   doc.Get("fields.comments.@reverse.0.body").String(),
	}

	doc.Get("fields.failed_testcases").ForEach(func(_, value gjson.Result) bool {
		event.FailedTestcases = append(event.FailedTestcases, value.String())
		return true
	})

	var comments []byte
	doc.Get("fields.comments.#.body").ForEach(func(_, value gjson.Result) bool {
		if len(comments) > 0 {
			comments = append(comments, '\n')
		}
		comments = append(comments, value.String()...)
		return true
	})
	event.CommentsText = string(comments)

	if attempts := doc.Get("fields.attempts"); attempts.Exists() {
		v := int(attempts.Int())
		event.Attempts = &v
	}
	if repeats := doc.Get("fields.same_failure_count"); repeats.Exists() {
		v := int(repeats.Int())
		event.SameFailureCount = &v
	}

	return event
}
