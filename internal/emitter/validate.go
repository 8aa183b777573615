package emitter

import (
	"errors"
	"fmt"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/model"
)

var (
	ErrNotAbstract             = errors.New("response view source must be marked //projgen:abstract")
	ErrFinalClassNotAllowed    = errors.New("final class cannot be projected")
	ErrPrivateClassNotAllowed  = errors.New("unexported class cannot be projected")
	ErrMissingNoArgConstructor = errors.New("class needs a zero-argument constructor")
	ErrPublicFieldNotAllowed   = errors.New("response view source cannot have exported fields")
	ErrArtifactWriteFailure    = errors.New("artifact write failed")
)

var codes = map[error]string{
	ErrNotAbstract:             diagnostic.CodeNotAbstract,
	ErrFinalClassNotAllowed:    diagnostic.CodeFinalClassNotAllowed,
	ErrPrivateClassNotAllowed:  diagnostic.CodePrivateClassNotAllowed,
	ErrMissingNoArgConstructor: diagnostic.CodeMissingNoArgConstructor,
	ErrPublicFieldNotAllowed:   diagnostic.CodePublicFieldNotAllowed,
	ErrArtifactWriteFailure:    diagnostic.CodeArtifactWriteFailure,
}

// ValidationError is a structural problem that stops one class from being
// emitted.
type ValidationError struct {
	Class string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %v", e.Class, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Diagnostic converts e into an error diagnostic.
func (e *ValidationError) Diagnostic() diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     codes[e.Err],
		Message:  e.Err.Error(),
		Class:    e.Class,
		Field:    e.Field,
	}
}

// Validate checks c before a view of kind is emitted. Every violation is
// returned, not just the first.
func Validate(c *model.ClassModel, kind model.ViewKind) []*ValidationError {
	var errs []*ValidationError
	add := func(err error, field string) {
		errs = append(errs, &ValidationError{Class: c.QualifiedName(), Field: field, Err: err})
	}

	if c.Modifiers.Has(model.Private) {
		add(ErrPrivateClassNotAllowed, "")
	}
	if c.Modifiers.Has(model.Final) {
		add(ErrFinalClassNotAllowed, "")
	}
	if !c.HasNoArgConstructor {
		add(ErrMissingNoArgConstructor, "")
	}
	if kind == model.ResponseView {
		if !c.IsAbstract() {
			add(ErrNotAbstract, "")
		}
		for _, f := range c.Fields {
			if f.IsPublic() {
				add(ErrPublicFieldNotAllowed, f.Name)
			}
		}
	}
	return errs
}
