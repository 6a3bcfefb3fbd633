package farming

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonCode(t *testing.T) {
	cases := []struct {
		err       error
		want      string
		rejection bool
	}{
		{nil, "", false},
		{&InsufficientInvestmentError{Minimum: 10}, ReasonInsufficientInvestment, true},
		{&PositionOccupiedError{}, ReasonPositionOccupied, true},
		{fmt.Errorf("wrapped: %w", ErrNotOwner), ReasonNotOwner, true},
		{&NotMatureError{}, ReasonNotMature, true},
		{&TransactionFailedError{Op: "plant", Err: errors.New("io")}, ReasonTransactionFailed, false},
		{&InfrastructureError{Op: "get", Err: errors.New("io")}, ReasonInfrastructure, false},
		{errors.New("mystery"), ReasonInfrastructure, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReasonCode(tc.err), "%v", tc.err)
		assert.Equal(t, tc.rejection, IsRejection(tc.err), "%v", tc.err)
	}
}

func TestTransactionFailedErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&TransactionFailedError{Op: "harvest", Err: cause})
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
