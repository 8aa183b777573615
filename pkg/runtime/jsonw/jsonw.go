// Package jsonw is a minimal streaming JSON object writer used by generated
// serializers.
package jsonw

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Writer writes one JSON object field by field. The first error is kept and
// every later call is a no-op.
type Writer struct {
	buf   bytes.Buffer
	depth int
	comma []bool
	err   error
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) StartObject() {
	if w.err != nil {
		return
	}
	w.buf.WriteByte('{')
	w.comma = append(w.comma, false)
	w.depth++
}

func (w *Writer) EndObject() {
	if w.err != nil || w.depth == 0 {
		return
	}
	w.buf.WriteByte('}')
	w.comma = w.comma[:len(w.comma)-1]
	w.depth--
}

func (w *Writer) key(k string) bool {
	if w.err != nil || w.depth == 0 {
		return false
	}
	if w.comma[len(w.comma)-1] {
		w.buf.WriteByte(',')
	}
	w.comma[len(w.comma)-1] = true
	w.buf.Write(quote(k))
	w.buf.WriteByte(':')
	return true
}

func quote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func (w *Writer) StringField(key, value string) {
	if w.key(key) {
		w.buf.Write(quote(value))
	}
}

func (w *Writer) BoolField(key string, value bool) {
	if w.key(key) {
		w.buf.WriteString(strconv.FormatBool(value))
	}
}

func (w *Writer) IntField(key string, value int64) {
	if w.key(key) {
		w.buf.WriteString(strconv.FormatInt(value, 10))
	}
}

func (w *Writer) UintField(key string, value uint64) {
	if w.key(key) {
		w.buf.WriteString(strconv.FormatUint(value, 10))
	}
}

// FloatField writes value as a JSON number. NaN and infinities have no JSON
// form and latch an *json.UnsupportedValueError.
func (w *Writer) FloatField(key string, value float64) {
	if w.err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		w.err = &json.UnsupportedValueError{Value: reflect.ValueOf(value), Str: strconv.FormatFloat(value, 'g', -1, 64)}
		return
	}
	if w.key(key) {
		w.buf.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
	}
}

func (w *Writer) NullField(key string) {
	if w.key(key) {
		w.buf.WriteString("null")
	}
}

// AnyField writes value with encoding/json.
func (w *Writer) AnyField(key string, value any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		w.err = err
		return
	}
	if w.key(key) {
		w.buf.Write(b)
	}
}

func (w *Writer) Err() error { return w.err }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
