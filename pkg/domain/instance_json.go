package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// instanceJSON is the wire form of an Instance. Kinds records the kind of
// every field so that int fields come back as int64 rather than float64.
type instanceJSON struct {
	ID      ID                   `json:"id"`
	Name    string               `json:"name,omitempty"`
	Type    string               `json:"type"`
	Fields  map[string]any       `json:"fields"`
	Kinds   map[string]FieldKind `json:"kinds,omitempty"`
	State   InstanceState        `json:"state"`
	Reason  string               `json:"reason,omitempty"`
	Defined bool                 `json:"defined"`
	Version uint64               `json:"version"`
}

// MarshalJSON encodes the instance together with its field kinds.
func (i Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(instanceJSON{
		ID:      i.ID,
		Name:    i.Name,
		Type:    i.Type,
		Fields:  i.Fields,
		Kinds:   i.kinds(),
		State:   i.State,
		Reason:  i.Reason,
		Defined: i.Defined,
		Version: i.Version,
	})
}

// UnmarshalJSON decodes an instance, converting each number to the kind
// recorded for its field. Numbers without a recorded kind become float64.
func (i *Instance) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var w instanceJSON
	if err := dec.Decode(&w); err != nil {
		return err
	}

	var fields map[string]any
	if w.Fields != nil {
		fields = make(map[string]any, len(w.Fields))
	}
	for name, v := range w.Fields {
		n, ok := v.(json.Number)
		if !ok {
			fields[name] = v
			continue
		}
		kind := w.Kinds[name]
		if kind != KindInt {
			kind = KindFloat
		}
		nv, err := kind.Normalize(n)
		if err != nil {
			return fmt.Errorf("instance %s field %q: %w", w.ID, name, err)
		}
		fields[name] = nv
	}

	*i = Instance{
		ID:      w.ID,
		Name:    w.Name,
		Type:    w.Type,
		Fields:  fields,
		State:   w.State,
		Reason:  w.Reason,
		Defined: w.Defined,
		Version: w.Version,
	}
	return nil
}

// kinds reports the field kinds, from the descriptor when there is one and
// from the stored Go types otherwise.
func (i *Instance) kinds() map[string]FieldKind {
	if len(i.Fields) == 0 {
		return nil
	}
	out := make(map[string]FieldKind, len(i.Fields))
	for name, v := range i.Fields {
		if i.desc != nil {
			if f, ok := i.desc.Field(name); ok {
				out[name] = f.Kind
				continue
			}
		}
		switch v.(type) {
		case int64, int, int32:
			out[name] = KindInt
		case float64, float32:
			out[name] = KindFloat
		case string:
			out[name] = KindString
		case bool:
			out[name] = KindBool
		}
	}
	return out
}
