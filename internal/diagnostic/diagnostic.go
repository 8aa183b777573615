// Package diagnostic collects non-fatal findings produced while generating
// views. Per-class errors never abort a batch; they are reported here and
// the next class is processed.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Codes reported by the generator.
const (
	CodeNotAbstract             = "NotAbstract"
	CodeFinalClassNotAllowed    = "FinalClassNotAllowed"
	CodePrivateClassNotAllowed  = "PrivateClassNotAllowed"
	CodeMissingNoArgConstructor = "MissingNoArgConstructor"
	CodePublicFieldNotAllowed   = "PublicFieldNotAllowed"
	CodeArtifactWriteFailure    = "ArtifactWriteFailure"
	CodeFieldsOmitted           = "FieldsOmitted"
	CodeUnknownSource           = "UnknownSource"
	CodeProjectionFailure       = "ProjectionFailure"
	CodeLoadFailure             = "LoadFailure"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single finding against a class.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	// Class is the qualified name of the class the finding is about.
	Class string
	// Field names the field involved, if any.
	Field string
}

func (d Diagnostic) String() string {
	var prefix []string
	if d.Class != "" {
		prefix = append(prefix, "["+d.Class+"]")
	}
	if d.Field != "" {
		prefix = append(prefix, d.Field)
	}
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}
	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}
	return msg
}

// Reporter receives diagnostics as they are produced.
type Reporter interface {
	Report(Diagnostic)
}

// Diagnostics keeps findings in the order they were reported.
type Diagnostics struct {
	Items []Diagnostic
}

// Report implements Reporter.
func (d *Diagnostics) Report(diag Diagnostic) {
	d.Items = append(d.Items, diag)
}

func (d *Diagnostics) AddError(code, message, class, field string) {
	d.Report(Diagnostic{Severity: SeverityError, Code: code, Message: message, Class: class, Field: field})
}

func (d *Diagnostics) AddWarning(code, message, class, field string) {
	d.Report(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Class: class, Field: field})
}

func (d *Diagnostics) AddInfo(code, message, class, field string) {
	d.Report(Diagnostic{Severity: SeverityInfo, Code: code, Message: message, Class: class, Field: field})
}

// Merge appends other's findings after d's.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Items = append(d.Items, other.Items...)
}

func (d *Diagnostics) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, it := range d.Items {
		if it.Severity == s {
			out = append(out, it)
		}
	}
	return out
}

func (d *Diagnostics) Errors() []Diagnostic { return d.filter(SeverityError) }

func (d *Diagnostics) Warnings() []Diagnostic { return d.filter(SeverityWarning) }

func (d *Diagnostics) Infos() []Diagnostic { return d.filter(SeverityInfo) }

func (d *Diagnostics) HasErrors() bool {
	for _, it := range d.Items {
		if it.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes lists the codes reported against class, in order.
func (d *Diagnostics) Codes(class string) []string {
	var out []string
	for _, it := range d.Items {
		if it.Class == class {
			out = append(out, it.Code)
		}
	}
	return out
}

// Err joins every error diagnostic into one error, or returns nil.
func (d *Diagnostics) Err() error {
	var errs []error
	for _, it := range d.Errors() {
		errs = append(errs, errors.New(it.String()))
	}
	return errors.Join(errs...)
}
