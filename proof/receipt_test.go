package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptMarshal(t *testing.T) {
	receipt := NewReceipt([]byte{1, 2, 3, 4, 5}, true)

	b, err := receipt.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalReceipt(b)
	require.NoError(t, err)
	assert.Equal(t, receipt, decoded)

	verdict, err := decoded.Verdict()
	require.NoError(t, err)
	assert.True(t, verdict)
}

func TestUnmarshalReceiptErrors(t *testing.T) {
	valid, err := NewReceipt([]byte{9}, true).Marshal()
	require.NoError(t, err)
	empty, err := (&Receipt{Journal: EncodeVerdict(true)}).Marshal()
	require.NoError(t, err)

	for name, input := range map[string][]byte{
		"zero bytes":     make([]byte, 8),
		"truncated":      valid[:len(valid)-1],
		"trailing bytes": append(append([]byte{}, valid...), 0x00),
		"empty seal":     empty,
		"nothing":        nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalReceipt(input)
			require.ErrorIs(t, err, ErrDeserialization)
		})
	}
}

func TestDecodeVerdict(t *testing.T) {
	v, err := DecodeVerdict(EncodeVerdict(true))
	require.NoError(t, err)
	assert.True(t, v)

	v, err = DecodeVerdict(EncodeVerdict(false))
	require.NoError(t, err)
	assert.False(t, v)

	_, err = DecodeVerdict([]byte{2, 0, 0, 0})
	require.Error(t, err)
	_, err = DecodeVerdict([]byte{1})
	require.Error(t, err)
}
