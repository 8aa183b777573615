package synth

import (
	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/projector"
)

const JSONWPkgPath = "github.com/cmmoran/projgen/pkg/runtime/jsonw"

// Writer selects the jsonw.Writer method used for a field.
type Writer int

const (
	WriteAny Writer = iota
	WriteString
	WriteBool
	WriteInt
	WriteUint
	WriteFloat
)

// Method is the jsonw.Writer method name.
func (w Writer) Method() string {
	switch w {
	case WriteString:
		return "StringField"
	case WriteBool:
		return "BoolField"
	case WriteInt:
		return "IntField"
	case WriteUint:
		return "UintField"
	case WriteFloat:
		return "FloatField"
	default:
		return "AnyField"
	}
}

// Conversion is the builtin the value is converted to before writing, or "".
func (w Writer) Conversion(t *model.TypeModel) string {
	var want string
	switch w {
	case WriteInt:
		want = "int64"
	case WriteUint:
		want = "uint64"
	case WriteFloat:
		want = "float64"
	default:
		return ""
	}
	if t.Name == want {
		return ""
	}
	return want
}

var writerTable = map[string]Writer{
	"string": WriteString,
	"bool":   WriteBool,
	"int":    WriteInt, "int8": WriteInt, "int16": WriteInt, "int32": WriteInt, "int64": WriteInt,
	"uint": WriteUint, "uint8": WriteUint, "uint16": WriteUint, "uint32": WriteUint, "uint64": WriteUint,
	"float32": WriteFloat, "float64": WriteFloat,
}

// FieldWrite writes one field.
type FieldWrite struct {
	Key    string
	Field  *projector.Field
	Writer Writer
	// Deref is set for pointers to primitives: nil writes null, anything
	// else writes the pointed-to value.
	Deref bool
}

// Serializer is a companion type writing a view field by field.
type Serializer struct {
	Name   string
	View   string
	Writes []FieldWrite
}

// SynthesizeSerializer builds the serializer for a wrapped view. Fields are
// written in declaration order under their naming-policy keys.
func SynthesizeSerializer(view *projector.View) *Serializer {
	s := &Serializer{Name: view.Name + "Serializer", View: view.Name}
	for _, f := range view.Fields {
		w := FieldWrite{Key: f.Key, Field: f}
		if f.Type.Kind == model.KindScalar {
			if kind, ok := writerTable[f.Type.Name]; ok {
				w.Writer = kind
				w.Deref = f.Type.Pointer
			}
		}
		s.Writes = append(s.Writes, w)
	}
	return s
}
