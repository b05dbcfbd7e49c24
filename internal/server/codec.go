package server

import "encoding/json"

// connect registers its protobuf JSON codec under both names; plain structs
// need each of them overridden.
const (
	codecJSON        = "json"
	codecJSONCharset = "json; charset=utf-8"
)

// jsonCodec carries plain Go structs over connect's JSON content types.
type jsonCodec struct {
	name string // zero value is codecJSON
}

func (c jsonCodec) Name() string {
	if c.name == "" {
		return codecJSON
	}
	return c.name
}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
