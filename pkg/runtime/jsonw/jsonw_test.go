package jsonw

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	w := NewWriter()
	w.StartObject()
	w.StringField("name", `a "quoted" name`)
	w.BoolField("active", true)
	w.IntField("count", -3)
	w.UintField("size", 7)
	w.FloatField("ratio", 0.5)
	w.NullField("avatar")
	w.AnyField("tags", []string{"a", "b"})
	w.EndObject()
	require.NoError(t, w.Err())

	assert.JSONEq(t, `{"name":"a \"quoted\" name","active":true,"count":-3,"size":7,"ratio":0.5,"avatar":null,"tags":["a","b"]}`, string(w.Bytes()))
}

func TestWriterEmptyObject(t *testing.T) {
	w := NewWriter()
	w.StartObject()
	w.EndObject()
	assert.Equal(t, "{}", string(w.Bytes()))
}

func TestWriterKeepsFirstError(t *testing.T) {
	w := NewWriter()
	w.StartObject()
	w.AnyField("bad", math.Inf(1))
	w.StringField("after", "x")
	w.EndObject()

	var unsupported *json.UnsupportedValueError
	require.ErrorAs(t, w.Err(), &unsupported)
	assert.Equal(t, "{", string(w.Bytes()))
}

func TestWriterRejectsNonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		w := NewWriter()
		w.StartObject()
		w.IntField("id", 1)
		w.FloatField("score", f)
		w.EndObject()

		var unsupported *json.UnsupportedValueError
		require.ErrorAs(t, w.Err(), &unsupported, "%v", f)
		assert.Equal(t, `{"id":1`, string(w.Bytes()))
	}
}
