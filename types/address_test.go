package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood/types"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"with prefix", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"without prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"padded", "  0x0000000000000000000000000000000000000000 ", "0x0000000000000000000000000000000000000000", false},
		{"too short", "0x1234", "", true},
		{"not hex", "0xZZZZb6053F3E94C9b9A09f33669435E7Ef1BeAed", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrInvalidAddress))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestZeroAddress(t *testing.T) {
	assert.True(t, types.IsZero(types.ZeroAddress))
	assert.True(t, types.IsZero(types.MustParseAddress("0x0000000000000000000000000000000000000000")))
	assert.False(t, types.IsZero(types.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")))
}

func TestAddressKeyIsCaseInsensitive(t *testing.T) {
	a := types.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	b := types.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.Equal(t, types.AddressKey(a), types.AddressKey(b))
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", types.AddressKey(a))
}

func TestMustParseAddressPanics(t *testing.T) {
	assert.Panics(t, func() { types.MustParseAddress("nope") })
}
