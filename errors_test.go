package dailymood_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/types"
)

func TestTypedErrors(t *testing.T) {
	account := types.MustParseAddress("0x0000000000000000000000000000000000000b0b")

	unauthorized := fmt.Errorf("add allowed: %w", &dailymood.UnauthorizedAccountError{
		Account: account,
		Role:    dailymood.RoleOwner,
	})
	assert.ErrorIs(t, unauthorized, dailymood.ErrUnauthorized)
	assert.NotErrorIs(t, unauthorized, dailymood.ErrIndexOutOfBounds)
	assert.Contains(t, unauthorized.Error(), account.Hex())
	assert.Contains(t, unauthorized.Error(), "owner role required")

	oob := &dailymood.IndexOutOfBoundsError{Account: account, Index: 3, Length: 2}
	assert.ErrorIs(t, oob, dailymood.ErrIndexOutOfBounds)
	assert.Contains(t, oob.Error(), "index out of bounds")
	assert.Contains(t, oob.Error(), "index 3, length 2")
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		retryable  bool
		outOfRange bool
	}{
		{"ContractNotFound", dailymood.ErrContractNotFound, true, false, false},
		{"NotFound", fmt.Errorf("wrapped: %w", dailymood.ErrNotFound), true, false, false},
		{"StoreNotReady", dailymood.ErrStoreNotReady, false, true, false},
		{"TransactionFailed", dailymood.ErrTransactionFailed, false, true, false},
		{"OutOfBounds", dailymood.ErrIndexOutOfBounds, false, false, true},
		{"Other", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, dailymood.IsNotFound(tt.err))
			assert.Equal(t, tt.retryable, dailymood.IsRetryable(tt.err))
			assert.Equal(t, tt.outOfRange, dailymood.IsOutOfBounds(tt.err))
		})
	}
}

func TestMultiError(t *testing.T) {
	var m dailymood.MultiError
	assert.False(t, m.HasErrors())
	assert.NoError(t, m.First())
	assert.Equal(t, "dailymood: no errors", m.Error())

	m.Add(nil)
	m.Add(dailymood.ValidationError{Field: "owner", Message: "zero address"})
	assert.Equal(t, "dailymood: validation failed for owner: zero address", m.Error())

	m.Add(dailymood.ErrInvalidOwner)
	assert.Len(t, m.Errors, 2)
	assert.Contains(t, m.Error(), "2 errors occurred")
	assert.ErrorIs(t, m, dailymood.ErrInvalidOwner)
	assert.ErrorIs(t, m, dailymood.ErrInvalidInput)
}
