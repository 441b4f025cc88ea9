package crowdfund

import (
	"encoding/json"
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionError(t *testing.T) {
	assert.NoError(t, ParseTransactionError(nil))

	err := ParseTransactionError(json.RawMessage(`{"InstructionError":[0,{"Custom":3012}]}`))
	var ie *InstructionError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 0, ie.Index)
	assert.ErrorIs(t, err, ErrAccountNotInitialized)

	err = ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{float64(1), "IncorrectProgramId"},
	})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Index)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,"InsufficientFunds"]}`))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,{"Custom":1}]}`))
	assert.ErrorIs(t, err, ErrNegativeLamports)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,{"Custom":6000}]}`))
	var pe *ProgramError
	require.True(t, errors.As(err, &pe))
	assert.EqualValues(t, 6000, pe.Code)

	err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,{"BorshIoError":"x"}]}`))
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "BorshIoError", pe.Name)

	err = ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{json.Number("2"), map[string]interface{}{"Custom": json.Number("2006")}},
	})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 2, ie.Index)
	assert.ErrorIs(t, err, ErrConstraintSeeds)

	assert.ErrorIs(t, ParseTransactionError("InsufficientFundsForFee"), ErrInsufficientFeeFunds)
	assert.ErrorIs(t, ParseTransactionError(json.RawMessage(`"ProgramAccountNotFound"`)), ErrProgramNotFound)
	assert.Error(t, ParseTransactionError(json.RawMessage(`{"BlockhashNotFound":null}`)))
}

func TestProgramError_Is(t *testing.T) {
	decoded := &ProgramError{Name: "IncorrectProgramId"}
	assert.ErrorIs(t, pkgerrors.Wrap(decoded, "withdraw"), ErrUnauthorized)
	assert.NotErrorIs(t, decoded, ErrInsufficientFunds)
	assert.NotErrorIs(t, ErrInsufficientFunds, ErrNegativeLamports)
	assert.Contains(t, ErrConstraintSeeds.Error(), "custom 2006")
}
