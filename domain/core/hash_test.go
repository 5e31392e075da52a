package core

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashReaderMatchesNewHash(t *testing.T) {
	data := []byte("i,j,FC,caliber,myelin,length\n1,2,0.5,1,0.3,5\n")

	streamed, err := HashReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, NewHash(data), streamed)
	assert.Len(t, streamed.String(), 16)
}

func TestHasherMatchesNewHash(t *testing.T) {
	h := NewHasher()
	_, err := h.Write([]byte("i,j,"))
	require.NoError(t, err)
	h.WriteString("FC")

	assert.Equal(t, NewHash([]byte("i,j,FC")), h.Sum())
}

func TestHashEmptyInput(t *testing.T) {
	// xxHash64 of the empty string
	assert.Equal(t, Hash("ef46db3751d8e999"), NewHash(nil))
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a := NewHash([]byte("edges"))
	b := NewHash([]byte("nodes"))

	assert.NotEqual(t, Combine(a, b), Combine(b, a))
	assert.Equal(t, Combine(a, b), Combine(a, b))
}

func TestErrorHelpers(t *testing.T) {
	err := NewMissingColumnsError("edges", []string{"FC", "myelin"})
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.True(t, IsInputError(err))
	assert.Contains(t, err.Error(), "FC, myelin")

	assert.True(t, IsArgumentError(ErrInvalidLevel))
	assert.False(t, IsArgumentError(err))
}
