package crowdfund

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ProgramError is a failure reported by the runtime while executing one of the
// program's instructions. Native errors carry only a Name; custom errors (system
// program and Anchor framework codes) carry a Code as well.
type ProgramError struct {
	Name   string
	Code   uint32
	Custom bool
	Msg    string
}

func (e *ProgramError) Error() string {
	if e.Custom {
		return fmt.Sprintf("program error %s (custom %d): %s", e.Name, e.Code, e.Msg)
	}
	return fmt.Sprintf("program error %s: %s", e.Name, e.Msg)
}

// Is matches on Name so that errors decoded from RPC payloads compare equal to
// the sentinels below.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	if t.Name == e.Name {
		return true
	}
	// a failed system transfer is how a donor running out of lamports surfaces
	return e.Name == ErrNegativeLamports.Name && t.Name == ErrInsufficientFunds.Name
}

var (
	// withdraw by anyone other than the campaign admin
	ErrUnauthorized = &ProgramError{Name: "IncorrectProgramId", Msg: "signer is not the campaign admin"}

	ErrInsufficientFunds = &ProgramError{Name: "InsufficientFunds", Msg: "insufficient lamports"}

	// Both overflow checks on amount_donated abort the program this way.
	ErrArithmeticOverflow = &ProgramError{Name: "ProgramFailedToComplete", Msg: "arithmetic overflow"}

	ErrMissingSigner = &ProgramError{Name: "MissingRequiredSignature", Msg: "required signature missing"}

	// System program custom errors.
	ErrAccountInUse     = &ProgramError{Name: "AccountAlreadyInUse", Code: 0, Custom: true, Msg: "campaign already exists"}
	ErrNegativeLamports = &ProgramError{Name: "ResultWithNegativeLamports", Code: 1, Custom: true, Msg: "account does not have enough lamports"}

	// Anchor framework errors.
	ErrUnknownInstruction         = &ProgramError{Name: "InstructionFallbackNotFound", Code: 101, Custom: true, Msg: "fallback functions are not supported"}
	ErrInstructionDidNotDecode    = &ProgramError{Name: "InstructionDidNotDeserialize", Code: 102, Custom: true, Msg: "instruction data did not deserialize"}
	ErrConstraintMut              = &ProgramError{Name: "ConstraintMut", Code: 2000, Custom: true, Msg: "mut constraint was violated"}
	ErrConstraintSeeds            = &ProgramError{Name: "ConstraintSeeds", Code: 2006, Custom: true, Msg: "seeds constraint was violated"}
	ErrAccountDidNotDeserialize   = &ProgramError{Name: "AccountDidNotDeserialize", Code: 3003, Custom: true, Msg: "failed to deserialize the account"}
	ErrAccountDidNotSerialize     = &ProgramError{Name: "AccountDidNotSerialize", Code: 3004, Custom: true, Msg: "failed to serialize the account"}
	ErrNotEnoughAccountKeys       = &ProgramError{Name: "AccountNotEnoughKeys", Code: 3005, Custom: true, Msg: "not enough account keys given to the instruction"}
	ErrAccountOwnedByWrongProgram = &ProgramError{Name: "AccountOwnedByWrongProgram", Code: 3007, Custom: true, Msg: "account owned by a different program"}
	ErrInvalidProgramID           = &ProgramError{Name: "InvalidProgramId", Code: 3008, Custom: true, Msg: "program id was not as expected"}
	ErrAccountNotSigner           = &ProgramError{Name: "AccountNotSigner", Code: 3010, Custom: true, Msg: "account is not a signer"}
	ErrAccountNotInitialized      = &ProgramError{Name: "AccountNotInitialized", Code: 3012, Custom: true, Msg: "account is not initialized"}
)

var customErrors = map[uint32]*ProgramError{}

var nativeErrors = map[string]*ProgramError{
	ErrUnauthorized.Name:       ErrUnauthorized,
	ErrInsufficientFunds.Name:  ErrInsufficientFunds,
	ErrArithmeticOverflow.Name: ErrArithmeticOverflow,
	ErrMissingSigner.Name:      ErrMissingSigner,
}

func init() {
	for _, e := range []*ProgramError{
		ErrAccountInUse,
		ErrNegativeLamports,
		ErrUnknownInstruction,
		ErrInstructionDidNotDecode,
		ErrConstraintMut,
		ErrConstraintSeeds,
		ErrAccountDidNotDeserialize,
		ErrAccountDidNotSerialize,
		ErrNotEnoughAccountKeys,
		ErrAccountOwnedByWrongProgram,
		ErrInvalidProgramID,
		ErrAccountNotSigner,
		ErrAccountNotInitialized,
	} {
		customErrors[e.Code] = e
	}
}

// Client and chain errors that never reach the program.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrNotCampaignAccount   = errors.New("account is not a campaign")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrNameRequired         = errors.New("campaign name is required")
	ErrTextTooLong          = errors.New("name and description exceed the campaign account")
	ErrTransactionTooLarge  = errors.New("transaction exceeds packet size")
	ErrInsufficientFeeFunds = errors.New("insufficient funds for fee")
	ErrProgramNotFound      = errors.New("program account not found")
	ErrInvalidInstruction   = errors.New("unexpected instruction data")
	ErrInvalidAccountData   = errors.New("unexpected account data")
)

// InstructionError reports which instruction in a transaction failed.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }

// ParseTransactionError converts the `err` member of a signature status or a
// simulation result into a Go error. The payload is the JSON-decoded value, for
// example {"InstructionError":[0,{"Custom":3012}]} or {"InstructionError":[0,"IncorrectProgramId"]}.
// A nil payload yields nil.
func ParseTransactionError(raw interface{}) error {
	if raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return transactionError(v)
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return errors.Errorf("transaction failed: %s", string(v))
		}
		return ParseTransactionError(decoded)
	case map[string]interface{}:
		ie, ok := v["InstructionError"]
		if !ok {
			for k := range v {
				return transactionError(k)
			}
			return errors.New("transaction failed")
		}
		tuple, ok := ie.([]interface{})
		if !ok || len(tuple) != 2 {
			return errors.Errorf("transaction failed: malformed instruction error %v", ie)
		}
		index, _ := toUint32(tuple[0])
		return &InstructionError{Index: int(index), Err: parseInstructionError(tuple[1])}
	}

	return errors.Errorf("transaction failed: %v", raw)
}

func parseInstructionError(detail interface{}) error {
	switch d := detail.(type) {
	case string:
		if e, ok := nativeErrors[d]; ok {
			return e
		}
		return &ProgramError{Name: d, Msg: "native program error"}
	case map[string]interface{}:
		if c, ok := d["Custom"]; ok {
			code, ok := toUint32(c)
			if !ok {
				return errors.Errorf("unrecognised custom error %v", c)
			}
			if e, ok := customErrors[code]; ok {
				return e
			}
			return &ProgramError{Name: "Custom", Code: code, Custom: true, Msg: "unknown custom error"}
		}
		for k := range d {
			return &ProgramError{Name: k, Msg: "native program error"}
		}
	}
	return errors.Errorf("unrecognised instruction error %v", detail)
}

func transactionError(key string) error {
	switch key {
	case "InsufficientFundsForFee", "AccountNotFound":
		return ErrInsufficientFeeFunds
	case "ProgramAccountNotFound", "InvalidProgramForExecution":
		return ErrProgramNotFound
	}
	return errors.Errorf("transaction failed: %s", key)
}

// toUint32 accepts the numeric types JSON decoders produce.
func toUint32(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case float64:
		return uint32(n), n >= 0 && n <= math.MaxUint32
	case json.Number:
		i, err := strconv.ParseUint(n.String(), 10, 32)
		return uint32(i), err == nil
	case int:
		return uint32(n), n >= 0 && int64(n) <= math.MaxUint32
	case int64:
		return uint32(n), n >= 0 && n <= math.MaxUint32
	case uint64:
		return uint32(n), n <= math.MaxUint32
	case uint32:
		return n, true
	}
	return 0, false
}
