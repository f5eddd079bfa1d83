package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

type JSONKind int

const (
	JSONNull JSONKind = iota
	JSONBool
	JSONNumber
	JSONString
	JSONArray
	JSONObject
)

// JSONValue is a decoded JSON tree. Exactly the fields that make sense for
// Kind are populated. Object members keep their arrival order so a rendering
// layer can display them as they appeared on the wire.
type JSONValue struct {
	Kind   JSONKind
	Bool   bool
	Number float64
	Str    string
	Items  []*JSONValue
	Fields []JSONField
}

type JSONField struct {
	Name  string
	Value *JSONValue
}

// Lookup returns the member value for name on an object, or nil.
func (v *JSONValue) Lookup(name string) *JSONValue {
	if v == nil || v.Kind != JSONObject {
		return nil
	}

	for _, field := range v.Fields {
		if field.Name == name {
			return field.Value
		}
	}

	return nil
}

// Payload is the classified body of a frame. Raw always holds the original
// bytes untouched. JSON is set when the bytes decoded as a JSON document;
// DecodeErr is set when they looked like JSON but did not decode.
type Payload struct {
	Raw       []byte
	JSON      *JSONValue
	DecodeErr string
}

// IsJSON reports whether the payload decoded as JSON.
func (p *Payload) IsJSON() bool {
	return p != nil && p.JSON != nil
}

// Summary renders a short human readable form for logs and frame listings.
func (p *Payload) Summary() string {
	switch {
	case p == nil:
		return "<none>"
	case p.DecodeErr != "":
		return fmt.Sprintf("<%d bytes, %s>", len(p.Raw), p.DecodeErr)
	case p.JSON != nil:
		return string(p.Raw)
	default:
		return fmt.Sprintf("<%d bytes>", len(p.Raw))
	}
}

// ClassifyPayload inspects a byte span and decides what it holds. A span
// whose first non-whitespace byte is '{' or '[' is offered to the JSON
// decoder; anything else is kept as opaque bytes with no decode attempt.
// A failed decode is not an error for the enclosing frame: the raw bytes
// survive alongside the decoder's complaint.
func ClassifyPayload(data []byte) *Payload {
	payload := &Payload{Raw: data}

	candidate := bytes.TrimLeft(data, " \t\r\n")
	if len(candidate) == 0 || (candidate[0] != '{' && candidate[0] != '[') {
		return payload
	}

	if !gjson.ValidBytes(candidate) {
		payload.DecodeErr = describeJSONError(candidate)
		return payload
	}

	payload.JSON = fromResult(gjson.ParseBytes(candidate))

	return payload
}

// describeJSONError names where the decode broke. gjson only reports
// validity, so the offset and message come from encoding/json's probe.
func describeJSONError(candidate []byte) string {
	var probe interface{}

	err := json.Unmarshal(candidate, &probe)
	if err == nil {
		return "invalid JSON"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at byte %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}

	return fmt.Sprintf("invalid JSON: %s", err.Error())
}

func fromResult(result gjson.Result) *JSONValue {
	switch result.Type {
	case gjson.Null:
		return &JSONValue{Kind: JSONNull}

	case gjson.False:
		return &JSONValue{Kind: JSONBool, Bool: false}

	case gjson.True:
		return &JSONValue{Kind: JSONBool, Bool: true}

	case gjson.Number:
		return &JSONValue{Kind: JSONNumber, Number: result.Num}

	case gjson.String:
		return &JSONValue{Kind: JSONString, Str: result.Str}

	case gjson.JSON:
		if result.IsArray() {
			value := &JSONValue{Kind: JSONArray}
			result.ForEach(func(_, item gjson.Result) bool {
				value.Items = append(value.Items, fromResult(item))
				return true
			})

			return value
		}

		value := &JSONValue{Kind: JSONObject}
		result.ForEach(func(name, member gjson.Result) bool {
			value.Fields = append(value.Fields, JSONField{
				Name:  name.Str,
				Value: fromResult(member),
			})
			return true
		})

		return value
	}

	return &JSONValue{Kind: JSONNull}
}
