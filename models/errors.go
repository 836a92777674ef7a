package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors of the processing pipeline.
var (
	BadParameterError = errors.New("bad parameter")

	NotFoundError = errors.New("not found")

	UnprocessableEntityError = errors.New("unprocessable entity")

	ConflictError = errors.New("duplicate value")
)

// Rule loading errors. An invalid rule is disabled and the run continues; an
// unparseable rule file is fatal for the run.
var (
	ErrRuleWithoutPatterns = errors.Wrap(BadParameterError, "rule declares no patterns")
	ErrRuleWithoutId       = errors.Wrap(BadParameterError, "rule declares no id")
	ErrInvalidRuleRegex    = errors.Wrap(BadParameterError, "rule contains an invalid regex")
)

// DB related errors
var (
	ErrIgnoreRollBackError = errors.New("ignore rollback error")
)
