package cache

import (
	jsoniter "github.com/json-iterator/go"
)

// json honours encoding/json tags and Marshaler implementations
// (decimal.Decimal, time.Time, uuid.UUID).
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode serialises a cache value. Strings and byte slices are stored as is.
func Encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return json.Marshal(value)
}

func Decode(data []byte, dest interface{}) error {
	return json.Unmarshal(data, dest)
}
