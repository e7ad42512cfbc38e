package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// member is one key/value pair of a JSON object.
//
// raw holds the value exactly as it was decoded. val, when non-nil, is a value
// written by the editor and takes precedence over raw; it is kept as a Go
// value so that NaN survives in memory until the document is encoded.
type member struct {
	key string
	raw json.RawMessage
	val any
}

// object is a JSON object that keeps its member order and leaves every
// member it was not asked about in its original encoded form.
type object struct {
	members []member
	null    bool
}

// UnmarshalJSON decodes a JSON object without interpreting its values.
// Duplicate keys keep the position of the first occurrence and the value of
// the last one.
func (o *object) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = object{null: true}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %s", describeRaw(data))
	}

	members := make([]member, 0)
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
		if i, dup := index[key]; dup {
			members[i].raw = raw
			continue
		}
		index[key] = len(members)
		members = append(members, member{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = object{members: members}
	return nil
}

// MarshalJSON encodes the members in order.
func (o object) MarshalJSON() ([]byte, error) {
	if o.null && len(o.members) == 0 {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(m.key)
		if err != nil {
			return nil, err
		}
		value, err := m.encoded()
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m member) encoded() (json.RawMessage, error) {
	if m.val != nil {
		return encodeValue(m.val)
	}
	if len(m.raw) == 0 {
		return json.RawMessage("null"), nil
	}
	return m.raw, nil
}

func (o *object) index(key string) int {
	for i := range o.members {
		if o.members[i].key == key {
			return i
		}
	}
	return -1
}

func (o *object) has(key string) bool {
	return o.index(key) >= 0
}

func (o *object) keys() []string {
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.key
	}
	return keys
}

// get returns the member value. Editor-written values are returned as the Go
// value in val; decoded values as raw bytes.
func (o *object) get(key string) (member, bool) {
	if i := o.index(key); i >= 0 {
		return o.members[i], true
	}
	return member{}, false
}

// set replaces the value of key in place, or appends it when absent.
func (o *object) set(key string, v any) {
	o.null = false
	if i := o.index(key); i >= 0 {
		o.members[i].val = v
		o.members[i].raw = nil
		return
	}
	o.members = append(o.members, member{key: key, val: v})
}

// setRaw is set for an already encoded value.
func (o *object) setRaw(key string, raw json.RawMessage) {
	o.null = false
	if i := o.index(key); i >= 0 {
		o.members[i].val = nil
		o.members[i].raw = raw
		return
	}
	o.members = append(o.members, member{key: key, raw: raw})
}

// prepend inserts key at the front. It is a no-op when key already exists.
func (o *object) prepend(key string, v any) {
	if o.has(key) {
		return
	}
	o.null = false
	o.members = append([]member{{key: key, val: v}}, o.members...)
}

// rawValue returns the encoded value of key.
func (o *object) rawValue(key string) (json.RawMessage, bool) {
	m, ok := o.get(key)
	if !ok {
		return nil, false
	}
	enc, err := m.encoded()
	if err != nil {
		return nil, false
	}
	return enc, true
}

// number reads key as a number. Absent, null and non-numeric values report
// false.
func (o *object) number(key string) (Number, bool) {
	m, ok := o.get(key)
	if !ok || m.isNull() {
		return 0, false
	}
	switch v := m.val.(type) {
	case Number:
		return v, true
	case nil:
	default:
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(m.raw, &f); err != nil {
		return 0, false
	}
	return Number(f), true
}

func (o *object) boolean(key string) (bool, bool) {
	m, ok := o.get(key)
	if !ok || m.isNull() {
		return false, false
	}
	if b, isBool := m.val.(bool); isBool {
		return b, true
	}
	var b bool
	if err := json.Unmarshal(m.raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func (o *object) str(key string) (string, bool) {
	m, ok := o.get(key)
	if !ok || m.isNull() {
		return "", false
	}
	if s, isString := m.val.(string); isString {
		return s, true
	}
	var s string
	if err := json.Unmarshal(m.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// text renders key for display: strings unquoted, any other JSON value as
// its literal encoding.
func (o *object) text(key string) string {
	if s, ok := o.str(key); ok {
		return s
	}
	if n, ok := o.number(key); ok {
		return n.String()
	}
	raw, ok := o.rawValue(key)
	if !ok || isNull(raw) {
		return ""
	}
	return string(raw)
}

func (o object) clone() object {
	members := make([]member, len(o.members))
	copy(members, o.members)
	return object{members: members, null: o.null}
}

// encodeValue marshals v without HTML escaping.
func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// isNull reports whether m holds a JSON null, either decoded or encoded.
func (m member) isNull() bool {
	return m.val == nil && (len(m.raw) == 0 || isNull(m.raw))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// describeRaw names the JSON kind of raw for error messages.
func describeRaw(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
