package builder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMap_MarshalInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("zebra", 1)
	m.Set("apple", 2)
	m.Set("mango", 3)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":1,"apple":2,"mango":3}`, string(out))
}

func TestOrderedMap_SetKeepsPosition(t *testing.T) {
	m := NewOrderedMap()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, m.Len())
}

func TestDecodeOrdered_PreservesDocumentOrder(t *testing.T) {
	m, err := DecodeOrdered([]byte(`{"z":[1],"a":[2],"m":[3]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, []any{float64(2)}, v)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":[1],"a":[2],"m":[3]}`, string(out))
}

func TestDecodeOrdered_EmptyAndNull(t *testing.T) {
	m, err := DecodeOrdered(nil)
	require.NoError(t, err)
	assert.Zero(t, m.Len())

	m, err = DecodeOrdered([]byte("null"))
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestDecodeOrdered_RejectsNonObject(t *testing.T) {
	_, err := DecodeOrdered([]byte(`[1,2]`))
	assert.Error(t, err)
}
