package apperrors_test

import (
	"fmt"
	"testing"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantBusiness  bool
		wantTransient bool
	}{
		{"insufficient funds", fmt.Errorf("%w: need 10", apperrors.ErrInsufficientFunds), true, false},
		{"capacity", fmt.Errorf("%w: 1 left", apperrors.ErrCapacityExceeded), true, false},
		{"invalid sale", apperrors.ErrInvalidSale, true, false},
		{"already processed", fmt.Errorf("wrap: %w", apperrors.ErrAlreadyProcessed), true, false},
		{"transient", fmt.Errorf("commit: %w", apperrors.ErrTransient), false, true},
		{"validation", apperrors.ErrValidation, false, false},
		{"not found", apperrors.ErrNotFound, false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantBusiness, apperrors.IsBusinessRule(tt.err))
			assert.Equal(t, tt.wantTransient, apperrors.IsTransient(tt.err))
			assert.Equal(t, tt.wantBusiness, apperrors.Reason(tt.err) != "")
		})
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "insufficient_funds", apperrors.Reason(fmt.Errorf("x: %w", apperrors.ErrInsufficientFunds)))
	assert.Equal(t, "capacity_exceeded", apperrors.Reason(apperrors.ErrCapacityExceeded))
	assert.Equal(t, "", apperrors.Reason(apperrors.ErrTransient))
}
