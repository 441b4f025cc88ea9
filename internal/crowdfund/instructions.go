package crowdfund

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type InstructionType uint8

const (
	InstructionUnknown InstructionType = iota
	InstructionInitialize
	InstructionCreate
	InstructionDonate
	InstructionWithdraw
)

func (t InstructionType) String() string {
	switch t {
	case InstructionInitialize:
		return "initialize"
	case InstructionCreate:
		return "create"
	case InstructionDonate:
		return "donate"
	case InstructionWithdraw:
		return "withdraw"
	}
	return "unknown"
}

var (
	initializeInstructionDiscriminator = sighash("global", "initialize")
	createInstructionDiscriminator     = sighash("global", "create")
	donateInstructionDiscriminator     = sighash("global", "donate")
	withdrawInstructionDiscriminator   = sighash("global", "withdraw")
)

// sighash is Anchor's 8 byte selector: sha256("<namespace>:<name>")[:8].
func sighash(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// IdentifyInstruction maps instruction data to the handler Anchor would
// dispatch it to.
func IdentifyInstruction(data []byte) (InstructionType, error) {
	if len(data) < 8 {
		return InstructionUnknown, ErrUnknownInstruction
	}
	var d [8]byte
	copy(d[:], data[:8])
	switch d {
	case initializeInstructionDiscriminator:
		return InstructionInitialize, nil
	case createInstructionDiscriminator:
		return InstructionCreate, nil
	case donateInstructionDiscriminator:
		return InstructionDonate, nil
	case withdrawInstructionDiscriminator:
		return InstructionWithdraw, nil
	}
	return InstructionUnknown, ErrUnknownInstruction
}

func encodeInstructionData(discriminator [8]byte, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, errors.Wrap(err, "failed to encode instruction args")
		}
	}
	return buf.Bytes(), nil
}

func decodeInstructionData(discriminator [8]byte, data []byte, args interface{}) error {
	if len(data) < 8 || !bytes.Equal(data[:8], discriminator[:]) {
		return ErrInvalidInstruction
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(args); err != nil {
		return ErrInstructionDidNotDecode
	}
	return nil
}

//
// initialize
//

// NewInitializeInstruction builds the argument-less initialize call. It takes
// no accounts.
func NewInitializeInstruction(program sol.PublicKey) (*sol.GenericInstruction, error) {
	data, err := encodeInstructionData(initializeInstructionDiscriminator, nil)
	if err != nil {
		return nil, err
	}
	return sol.NewInstruction(programOrDefault(program), sol.AccountMetaSlice{}, data), nil
}

//
// create
//

type CreateInstructionArgs struct {
	Name        string
	Description string
}

type CreateInstructionAccounts struct {
	Campaign sol.PublicKey
	User     sol.PublicKey

	Program sol.PublicKey
}

func NewCreateInstruction(
	accounts *CreateInstructionAccounts,
	args *CreateInstructionArgs,
) (*sol.GenericInstruction, error) {
	data, err := encodeInstructionData(createInstructionDiscriminator, args)
	if err != nil {
		return nil, err
	}

	// # Account references
	//   0. [WRITE] Campaign PDA, initialised here
	//   1. [WRITE, SIGNER] User, pays rent and becomes admin
	//   2. [] System program
	return sol.NewInstruction(
		programOrDefault(accounts.Program),
		sol.AccountMetaSlice{
			sol.NewAccountMeta(accounts.Campaign, true, false),
			sol.NewAccountMeta(accounts.User, true, true),
			sol.NewAccountMeta(SystemProgramID, false, false),
		},
		data,
	), nil
}

func DecodeCreateInstruction(metas []*sol.AccountMeta, data []byte) (*CreateInstructionArgs, *CreateInstructionAccounts, error) {
	if len(metas) < 3 {
		return nil, nil, ErrNotEnoughAccountKeys
	}

	var args CreateInstructionArgs
	if err := decodeInstructionData(createInstructionDiscriminator, data, &args); err != nil {
		return nil, nil, err
	}

	return &args, &CreateInstructionAccounts{
		Campaign: metas[0].PublicKey,
		User:     metas[1].PublicKey,
	}, nil
}

//
// donate
//

type DonateInstructionArgs struct {
	Amount uint64
}

type DonateInstructionAccounts struct {
	Campaign sol.PublicKey
	User     sol.PublicKey

	Program sol.PublicKey
}

func NewDonateInstruction(
	accounts *DonateInstructionAccounts,
	args *DonateInstructionArgs,
) (*sol.GenericInstruction, error) {
	data, err := encodeInstructionData(donateInstructionDiscriminator, args)
	if err != nil {
		return nil, err
	}

	// # Account references
	//   0. [WRITE] Campaign
	//   1. [WRITE, SIGNER] User, the donor
	//   2. [] System program, for the transfer CPI
	return sol.NewInstruction(
		programOrDefault(accounts.Program),
		sol.AccountMetaSlice{
			sol.NewAccountMeta(accounts.Campaign, true, false),
			sol.NewAccountMeta(accounts.User, true, true),
			sol.NewAccountMeta(SystemProgramID, false, false),
		},
		data,
	), nil
}

func DecodeDonateInstruction(metas []*sol.AccountMeta, data []byte) (*DonateInstructionArgs, *DonateInstructionAccounts, error) {
	if len(metas) < 3 {
		return nil, nil, ErrNotEnoughAccountKeys
	}

	var args DonateInstructionArgs
	if err := decodeInstructionData(donateInstructionDiscriminator, data, &args); err != nil {
		return nil, nil, err
	}

	return &args, &DonateInstructionAccounts{
		Campaign: metas[0].PublicKey,
		User:     metas[1].PublicKey,
	}, nil
}

//
// withdraw
//

type WithdrawInstructionArgs struct {
	Amount uint64
}

type WithdrawInstructionAccounts struct {
	Campaign sol.PublicKey
	User     sol.PublicKey

	Program sol.PublicKey
}

func NewWithdrawInstruction(
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) (*sol.GenericInstruction, error) {
	data, err := encodeInstructionData(withdrawInstructionDiscriminator, args)
	if err != nil {
		return nil, err
	}

	// # Account references
	//   0. [WRITE] Campaign
	//   1. [WRITE, SIGNER] User, must be the campaign admin
	return sol.NewInstruction(
		programOrDefault(accounts.Program),
		sol.AccountMetaSlice{
			sol.NewAccountMeta(accounts.Campaign, true, false),
			sol.NewAccountMeta(accounts.User, true, true),
		},
		data,
	), nil
}

func DecodeWithdrawInstruction(metas []*sol.AccountMeta, data []byte) (*WithdrawInstructionArgs, *WithdrawInstructionAccounts, error) {
	if len(metas) < 2 {
		return nil, nil, ErrNotEnoughAccountKeys
	}

	var args WithdrawInstructionArgs
	if err := decodeInstructionData(withdrawInstructionDiscriminator, data, &args); err != nil {
		return nil, nil, err
	}

	return &args, &WithdrawInstructionAccounts{
		Campaign: metas[0].PublicKey,
		User:     metas[1].PublicKey,
	}, nil
}
