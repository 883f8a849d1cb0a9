package wire

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Response is the envelope every wire command answers with.
type Response struct {
	Status    StatusCode
	SessionID string
	Value     any
	// Message is the top-level message some servers send next to the value.
	Message string

	// HTTPStatus is the status of the HTTP response carrying the envelope.
	HTTPStatus int
	// Location is the redirect target of a 3xx response, relative to the
	// server URL when it points below it.
	Location string
}

var (
	_ easyjson.Unmarshaler = &Response{}
	_ easyjson.Marshaler   = &Response{}
	_ easyjson.Marshaler   = &Object{}
	_ easyjson.Unmarshaler = &Object{}
)

// UnmarshalEasyJSON decodes the envelope. Unknown members are skipped.
func (r *Response) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "status":
			if in.IsNull() {
				in.Skip()
			} else {
				r.Status = StatusCode(in.Int())
			}
		case "sessionId":
			if in.CurrentToken() == jlexer.TokenString {
				r.SessionID = in.String()
			} else {
				in.SkipRecursive()
			}
		case "value":
			r.Value = decodeValue(in)
		case "message":
			if in.CurrentToken() == jlexer.TokenString {
				r.Message = in.String()
			} else {
				in.SkipRecursive()
			}
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

// MarshalEasyJSON encodes the envelope.
func (r *Response) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"status":`)
	out.Int(int(r.Status))
	if r.SessionID != "" {
		out.RawString(`,"sessionId":`)
		out.String(r.SessionID)
	}
	out.RawString(`,"value":`)
	EncodeValue(out, r.Value)
	out.RawByte('}')
}

// ErrorMessage returns the message of a failed response: value.message when
// present, the top-level message otherwise.
func (r *Response) ErrorMessage() string {
	if o, ok := r.Value.(*Object); ok {
		if msg, ok := o.String("message"); ok && msg != "" {
			return msg
		}
	}
	return r.Message
}

// UnmarshalEasyJSON decodes a JSON object keeping the key order.
func (o *Object) UnmarshalEasyJSON(in *jlexer.Lexer) {
	decodeObjectInto(in, o)
}

// MarshalEasyJSON encodes the object in key order.
func (o *Object) MarshalEasyJSON(out *jwriter.Writer) {
	if o == nil {
		out.RawString("null")
		return
	}
	out.RawByte('{')
	first := true
	o.Range(func(k string, v any) bool {
		if !first {
			out.RawByte(',')
		}
		first = false
		out.String(k)
		out.RawByte(':')
		EncodeValue(out, v)
		return out.Error == nil
	})
	out.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(o)
}

// Decode parses data into a wire value.
func Decode(data []byte) (any, error) {
	in := jlexer.Lexer{Data: data}
	v := decodeValue(&in)
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("decoding wire value: %w", err)
	}
	return v, nil
}

// Encode serializes a wire value.
func Encode(v any) ([]byte, error) {
	var out jwriter.Writer
	EncodeValue(&out, v)
	if out.Error != nil {
		return nil, out.Error
	}
	return out.BuildBytes()
}

func decodeValue(in *jlexer.Lexer) any {
	switch in.CurrentToken() {
	case jlexer.TokenNull:
		in.Null()
		return nil
	case jlexer.TokenBool:
		return in.Bool()
	case jlexer.TokenNumber:
		return in.Float64()
	case jlexer.TokenString:
		return in.String()
	case jlexer.TokenDelim:
		if in.IsDelim('[') {
			return decodeArray(in)
		}
		o := NewObject()
		decodeObjectInto(in, o)
		return o
	default:
		in.SkipRecursive()
		return nil
	}
}

func decodeArray(in *jlexer.Lexer) []any {
	values := []any{}
	in.Delim('[')
	for !in.IsDelim(']') {
		values = append(values, decodeValue(in))
		in.WantComma()
	}
	in.Delim(']')
	return values
}

func decodeObjectInto(in *jlexer.Lexer, o *Object) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		o.Set(key, decodeValue(in))
		in.WantComma()
	}
	in.Delim('}')
}

// EncodeValue writes v to out. Values outside of the natively supported set
// are encoded with encoding/json; those it rejects make the writer fail.
//
//nolint:cyclop
func EncodeValue(out *jwriter.Writer, v any) {
	switch v := v.(type) {
	case nil:
		out.RawString("null")
	case bool:
		out.Bool(v)
	case string:
		out.String(v)
	case float64:
		out.Float64(v)
	case float32:
		out.Float32(v)
	case int:
		out.Int(v)
	case int32:
		out.Int32(v)
	case int64:
		out.Int64(v)
	case uint:
		out.Uint(v)
	case uint32:
		out.Uint32(v)
	case uint64:
		out.Uint64(v)
	case []any:
		out.RawByte('[')
		for i, e := range v {
			if i > 0 {
				out.RawByte(',')
			}
			EncodeValue(out, e)
		}
		out.RawByte(']')
	case []string:
		out.RawByte('[')
		for i, s := range v {
			if i > 0 {
				out.RawByte(',')
			}
			out.String(s)
		}
		out.RawByte(']')
	case map[string]any:
		ObjectFromMap(v).MarshalEasyJSON(out)
	case easyjson.Marshaler:
		v.MarshalEasyJSON(out)
	case json.Marshaler:
		out.Raw(v.MarshalJSON())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			err = fmt.Errorf("wire: cannot encode value of type %T: %w", v, err)
		}
		out.Raw(b, err)
	}
}
