// Package fields is the static catalog of supported question types.
// Each field type binds a storage kind to a validation rule; validation
// is pure and touches no storage.
package fields

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/formwell/formwell/model"
)

var (
	ErrUnknownFieldType  = errors.New("unknown field type")
	ErrInvalidParameters = errors.New("invalid field parameters")
	ErrInvalidValue      = errors.New("invalid value")
)

// StorageKind selects the physical answer column a value is stored in.
type StorageKind int

const (
	StorageText StorageKind = iota
	StorageKey
	StorageMultiKey
	StorageInt
	StorageFloat
)

type FieldType struct {
	Key     string
	Name    string
	Storage StorageKind

	// Parametric field types require a non-empty choice mapping;
	// non-parametric ones refuse any parameters.
	Parametric bool
}

var fieldTypes = []FieldType{
	{Key: "tx", Name: "Text", Storage: StorageText},
	{Key: "mt", Name: "MultiText", Storage: StorageText},
	{Key: "dr", Name: "Dropdown", Storage: StorageKey, Parametric: true},
	{Key: "rd", Name: "Radio", Storage: StorageKey, Parametric: true},
	{Key: "ch", Name: "Checkboxes", Storage: StorageMultiKey, Parametric: true},
	{Key: "rt", Name: "Rating", Storage: StorageFloat},
	{Key: "in", Name: "Integer", Storage: StorageInt},
	{Key: "fl", Name: "Float", Storage: StorageFloat},
}

var fieldTypesByKey = func() map[string]FieldType {
	byKey := make(map[string]FieldType, len(fieldTypes))
	for _, f := range fieldTypes {
		byKey[f.Key] = f
	}
	return byKey
}()

// Get returns the field type registered under key.
func Get(key string) (FieldType, error) {
	f, ok := fieldTypesByKey[key]
	if !ok {
		return FieldType{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, key)
	}
	return f, nil
}

// All returns the registered field types in catalog order.
func All() []FieldType {
	return append([]FieldType(nil), fieldTypes...)
}

// CheckParms validates field parameters against the field type's shape
// contract.
func (f FieldType) CheckParms(parms model.FieldParms) error {
	if f.Parametric {
		if len(parms) < 1 {
			return fmt.Errorf("%w: %s field expects a mapping of valid choices",
				ErrInvalidParameters, f.Name)
		}
		return nil
	}
	if len(parms) > 0 {
		return fmt.Errorf("%w: %s field does not take parameters",
			ErrInvalidParameters, f.Name)
	}
	return nil
}

// CheckValue validates a submitted answer value against the field type
// and its parameters.
func (f FieldType) CheckValue(parms model.FieldParms, value string) error {
	switch f.Storage {
	case StorageKey:
		if !parms.Has(value) {
			return fmt.Errorf("%w: value was not in available choices", ErrInvalidValue)
		}
	case StorageMultiKey:
		for _, key := range strings.Split(value, ",") {
			if !parms.Has(key) {
				return fmt.Errorf("%w: value was not in available choices", ErrInvalidValue)
			}
		}
	case StorageInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("%w: value was not an integer", ErrInvalidValue)
		}
	case StorageFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: value was not numeric", ErrInvalidValue)
		}
	}
	return nil
}
