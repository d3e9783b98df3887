package interp

import (
	"fmt"
	"strings"
)

// IncompatibilityError reports that the model references operations the
// installed runtime does not implement (or implements at a different
// version). Callers render this differently from a generic failure: it is
// an actionable "update the model or the runtime" condition, not a
// transient fault.
type IncompatibilityError struct {
	Detail string
	Err    error
}

func (e *IncompatibilityError) Error() string {
	return fmt.Sprintf("model is incompatible with the installed runtime: %s", e.Detail)
}

func (e *IncompatibilityError) Unwrap() error {
	return e.Err
}

// incompatibilitySignatures are substrings of runtime error text that
// identify a model/runtime version mismatch rather than a generic failure.
var incompatibilitySignatures = []string{
	"unsupported op",
	"not implemented for",
	"op version",
	"opset",
	"invalid graph",
	"invalid model",
	"protobuf parsing failed",
	"no opset import",
}

// classifyBuildError maps the final construction failure into either an
// IncompatibilityError or a wrapped generic error, based on known runtime
// error signatures.
func classifyBuildError(err error) error {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())
	for _, sig := range incompatibilitySignatures {
		if strings.Contains(text, sig) {
			return &IncompatibilityError{Detail: err.Error(), Err: err}
		}
	}
	return fmt.Errorf("failed to build interpreter: %w", err)
}
