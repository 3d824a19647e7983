package audit

import (
	"bytes"
	"encoding/json"

	"github.com/campus-assoc/backend/internal/tracking"
)

const (
	keyTargetUser             = "_TargetUser"
	keyCriticalFieldsModified = "_CriticalFieldsModified"
)

type payloadField struct {
	key   string
	value any
}

type oldNew struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// buildPayload serialises deltas as a JSON object in column order. It returns nil
// when there is nothing to log.
func buildPayload(state tracking.State, deltas []FieldDelta, extra []payloadField) (*string, error) {
	fields := make([]payloadField, 0, len(deltas)+len(extra))
	for _, d := range deltas {
		var v any
		switch state {
		case tracking.Modified:
			v = oldNew{Old: d.Old, New: d.New}
		case tracking.Deleted:
			v = d.Old
		default:
			v = d.New
		}
		fields = append(fields, payloadField{key: d.Name, value: v})
	}
	fields = append(fields, extra...)
	if len(fields) == 0 {
		return nil, nil
	}
	s, err := encodeObject(fields)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// encodeObject writes a JSON object preserving field order, which a map would not.
func encodeObject(fields []payloadField) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return "", err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return "", err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func encodeString(s string) (*string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := string(b)
	return &out, nil
}
