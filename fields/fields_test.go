package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/model"
)

func TestGet(t *testing.T) {
	f, err := Get("tx")
	require.NoError(t, err)
	assert.Equal(t, "Text", f.Name)
	assert.Equal(t, StorageText, f.Storage)
	assert.False(t, f.Parametric)

	f, err = Get("ch")
	require.NoError(t, err)
	assert.Equal(t, StorageMultiKey, f.Storage)
	assert.True(t, f.Parametric)

	_, err = Get("nope")
	assert.ErrorIs(t, err, ErrUnknownFieldType)
}

func TestAllCatalogOrder(t *testing.T) {
	keys := []string{}
	for _, f := range All() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"tx", "mt", "dr", "rd", "ch", "rt", "in", "fl"}, keys)
}

func TestCheckParms(t *testing.T) {
	text, err := Get("tx")
	require.NoError(t, err)
	dropdown, err := Get("dr")
	require.NoError(t, err)

	assert.NoError(t, text.CheckParms(nil))
	assert.ErrorIs(t, text.CheckParms(model.Parms("a", "a")), ErrInvalidParameters)

	assert.NoError(t, dropdown.CheckParms(model.Parms("a", "Apple")))
	assert.ErrorIs(t, dropdown.CheckParms(nil), ErrInvalidParameters)
	assert.ErrorIs(t, dropdown.CheckParms(model.FieldParms{}), ErrInvalidParameters)
}

func TestCheckValue(t *testing.T) {
	text, _ := Get("tx")
	assert.NoError(t, text.CheckValue(nil, "anything at all"))

	dropdown, _ := Get("dr")
	parms := model.Parms("a", "Apple", "b", "Bear")
	assert.NoError(t, dropdown.CheckValue(parms, "a"))
	assert.ErrorIs(t, dropdown.CheckValue(parms, "z"), ErrInvalidValue)

	checkboxes, _ := Get("ch")
	parms = model.Parms("e", "Egg", "f", "Fan")
	assert.NoError(t, checkboxes.CheckValue(parms, "e"))
	assert.NoError(t, checkboxes.CheckValue(parms, "e,f"))
	assert.ErrorIs(t, checkboxes.CheckValue(parms, "e,z"), ErrInvalidValue)

	rating, _ := Get("rt")
	assert.NoError(t, rating.CheckValue(nil, "1"))
	assert.NoError(t, rating.CheckValue(nil, "1.5"))
	assert.ErrorIs(t, rating.CheckValue(nil, "a"), ErrInvalidValue)

	integer, _ := Get("in")
	assert.NoError(t, integer.CheckValue(nil, "42"))
	assert.ErrorIs(t, integer.CheckValue(nil, "4.2"), ErrInvalidValue)
	assert.ErrorIs(t, integer.CheckValue(nil, "z"), ErrInvalidValue)

	float, _ := Get("fl")
	assert.NoError(t, float.CheckValue(nil, "1.2"))
	assert.ErrorIs(t, float.CheckValue(nil, "z"), ErrInvalidValue)
}
