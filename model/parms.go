package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldParms is an insertion-ordered string-to-string mapping. Choice
// fields use it for their options, where order drives display order, so
// it must survive JSON round trips intact.
type FieldParms []Parm

type Parm struct {
	Key   string
	Value string
}

func Parms(pairs ...string) FieldParms {
	if len(pairs)%2 != 0 {
		panic("model.Parms: odd number of arguments")
	}
	parms := make(FieldParms, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		parms = append(parms, Parm{Key: pairs[i], Value: pairs[i+1]})
	}
	return parms
}

func (p FieldParms) Has(key string) bool {
	for _, parm := range p {
		if parm.Key == key {
			return true
		}
	}
	return false
}

func (p FieldParms) Get(key string) (string, bool) {
	for _, parm := range p {
		if parm.Key == key {
			return parm.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes a JSON object with keys in list order.
func (p FieldParms) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, parm := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(parm.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(parm.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order.
func (p *FieldParms) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field_parms: expected JSON object, got %v", tok)
	}

	parms := FieldParms{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("field_parms: non-string key %v", keyTok)
		}

		valueTok, err := dec.Token()
		if err != nil {
			return err
		}
		value, ok := valueTok.(string)
		if !ok {
			return fmt.Errorf("field_parms: non-string value for key %q", key)
		}

		parms = append(parms, Parm{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = parms
	return nil
}
