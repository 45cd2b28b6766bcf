package json

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	b, err := Marshal(map[string]interface{}{"name": "<a&b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"<a&b>"}`, string(b))

	b, err = Marshal2(map[string]interface{}{"name": "<a&b>"}, true)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"\u003ca\u0026b\u003e"}`, string(b))

	_, err = Marshal(func() {})
	assert.Error(t, err)
}

func TestUnmarshalObject(t *testing.T) {
	m, err := UnmarshalObject([]byte(` { "status": "ok", "age": { "$gte": 18 } } `))
	require.NoError(t, err)
	assert.Equal(t, "ok", m["status"])
	assert.Equal(t, map[string]interface{}{"$gte": 18.0}, m["age"])

	_, err = UnmarshalObject([]byte(`{ "status": }`))
	assert.Error(t, err)

	_, err = UnmarshalObject([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = UnmarshalObject([]byte(`null`))
	assert.Equal(t, ErrNotObject, err)

	_, err = UnmarshalObject([]byte(`{"a":1} {"b":2}`))
	assert.Equal(t, ErrTrailingData, err)

	_, err = UnmarshalObject([]byte(``))
	assert.Error(t, err)
}

func TestUnmarshalObjectUseNumber(t *testing.T) {
	b := []byte(`{"seq":9007199254740993,"price":1.50,"items":[{"id":12345678901234567890}]}`)
	m, err := UnmarshalObjectUseNumber(b)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), m["seq"])
	assert.Equal(t, json.Number("1.50"), m["price"])

	out, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[{"id":12345678901234567890}],"price":1.50,"seq":9007199254740993}`, string(out))

	_, err = UnmarshalObjectUseNumber([]byte(`{"a":1} 2`))
	assert.Equal(t, ErrTrailingData, err)
}
