package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var (
	ErrNotObject    = errors.New("json value is not an object")
	ErrTrailingData = errors.New("invalid character after top-level value")
)

// Marshal marshals the struct to json data.
//escapeHTML=false
//disables this behavior.escape &, <, and > to \u0026, \u003c, and \u003e
func Marshal(v interface{}) ([]byte, error) {
	return Marshal2(v, false)
}

func Marshal2(v interface{}, escapeHTML bool) ([]byte, error) {
	var byteBuf bytes.Buffer
	encoder := json.NewEncoder(&byteBuf)
	encoder.SetEscapeHTML(escapeHTML)
	err := encoder.Encode(v)
	if err == nil && byteBuf.Len() > 0 {
		return byteBuf.Bytes()[:byteBuf.Len()-1], err
	} else {
		return byteBuf.Bytes(), err
	}
}

// Unmarshal json data to struct
func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}

// UnmarshalObject decodes b, which must hold exactly one json object.
// Numbers are decoded as float64.
func UnmarshalObject(b []byte) (map[string]interface{}, error) {
	return unmarshalObject(b, false)
}

// UnmarshalObjectUseNumber is UnmarshalObject with numbers kept as
// json.Number, so re-encoding writes them back unchanged.
func UnmarshalObjectUseNumber(b []byte) (map[string]interface{}, error) {
	return unmarshalObject(b, true)
}

func unmarshalObject(b []byte, useNumber bool) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(b))
	if useNumber {
		decoder.UseNumber()
	}
	var m map[string]interface{}
	if err := decoder.Decode(&m); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	if m == nil {
		return nil, ErrNotObject
	}
	return m, nil
}
