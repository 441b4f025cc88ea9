// Package ledger is an in-memory bank that executes the crowdfunding program
// and the system transfer instruction with the same account checks and
// failure codes as the deployed program. It implements crowdfund.Chain so the
// client, the service and the HTTP API can run without a validator.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/crowdfund"
)

const (
	FeeLamportsPerSignature = 5000

	rentLamportsPerByteYear = 3480
	rentExemptionYears      = 2
	accountStorageOverhead  = 128
)

var (
	nativeLoaderID                = sol.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")
	bpfLoaderUpgradeableProgramID = sol.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
)

// MinimumBalance is the rent exempt reserve for an account holding size bytes.
func MinimumBalance(size uint64) uint64 {
	return (accountStorageOverhead + size) * rentLamportsPerByteYear * rentExemptionYears
}

type account struct {
	lamports   uint64
	owner      sol.PublicKey
	data       []byte
	executable bool
}

func (a *account) clone() *account {
	cp := *a
	cp.data = append([]byte(nil), a.data...)
	return &cp
}

func (a *account) empty() bool {
	return a.lamports == 0 && len(a.data) == 0
}

// Record is one processed transaction.
type Record struct {
	Signature    sol.Signature
	Slot         uint64
	Payer        sol.PublicKey
	Instructions []string
	Fee          uint64
	Err          error
	Time         time.Time
}

type Ledger struct {
	log     *zap.Logger
	program sol.PublicKey

	mu       sync.RWMutex
	accounts map[sol.PublicKey]*account
	slot     uint64
	records  []Record
}

type Option func(*Ledger)

// WithProgramID deploys the program under a different address.
func WithProgramID(program sol.PublicKey) Option {
	return func(l *Ledger) { l.program = program }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		log:      zap.NewNop(),
		program:  crowdfund.ProgramID,
		accounts: make(map[sol.PublicKey]*account),
	}
	for _, o := range opts {
		o(l)
	}

	l.accounts[sol.SystemProgramID] = &account{lamports: 1, owner: nativeLoaderID, executable: true}
	l.accounts[l.program] = &account{lamports: 1, owner: bpfLoaderUpgradeableProgramID, executable: true}
	return l
}

func (l *Ledger) Program() sol.PublicKey { return l.program }

// Airdrop credits lamports to address out of thin air.
func (l *Ledger) Airdrop(ctx context.Context, address sol.PublicKey, lamports uint64) (sol.Signature, error) {
	if err := ctx.Err(); err != nil {
		return sol.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[address]
	if !ok {
		acct = &account{owner: sol.SystemProgramID}
		l.accounts[address] = acct
	}
	if acct.lamports > math.MaxUint64-lamports {
		return sol.Signature{}, crowdfund.ErrArithmeticOverflow
	}
	acct.lamports += lamports

	l.slot++
	sig := l.signatureFor("airdrop", address.Bytes())
	l.records = append(l.records, Record{
		Signature:    sig,
		Slot:         l.slot,
		Payer:        address,
		Instructions: []string{"airdrop"},
		Time:         time.Now(),
	})
	l.log.Debug("airdrop", zap.String("address", address.String()), zap.Uint64("lamports", lamports))
	return sig, nil
}

func (l *Ledger) Submit(ctx context.Context, payer sol.PrivateKey, instructions ...sol.Instruction) (sol.Signature, error) {
	if err := ctx.Err(); err != nil {
		return sol.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := crowdfund.BuildTransaction(payer, l.blockhash(), instructions...)
	if err != nil {
		return sol.Signature{}, err
	}
	l.slot++
	sig := tx.Signatures[0]

	signers := make(map[sol.PublicKey]bool)
	for i := 0; i < int(tx.Message.Header.NumRequiredSignatures); i++ {
		signers[tx.Message.AccountKeys[i]] = true
	}

	rec := Record{
		Signature: sig,
		Slot:      l.slot,
		Payer:     payer.PublicKey(),
		Fee:       FeeLamportsPerSignature * uint64(len(tx.Signatures)),
		Time:      time.Now(),
	}
	for _, ix := range instructions {
		rec.Instructions = append(rec.Instructions, l.instructionName(ix))
	}

	err = l.process(signers, rec.Payer, rec.Fee, instructions)
	if err != nil {
		rec.Err = err
		l.log.Debug("transaction failed",
			zap.String("signature", sig.String()),
			zap.Strings("instructions", rec.Instructions),
			zap.Error(err),
		)
	} else {
		l.log.Debug("transaction processed",
			zap.String("signature", sig.String()),
			zap.Strings("instructions", rec.Instructions),
			zap.Uint64("slot", rec.Slot),
		)
	}
	l.records = append(l.records, rec)

	if err != nil {
		return sol.Signature{}, err
	}
	return sig, nil
}

// process runs the transaction against a scratch view of the accounts and
// commits it only if the fee and every instruction succeed.
func (l *Ledger) process(signers map[sol.PublicKey]bool, payer sol.PublicKey, fee uint64, instructions []sol.Instruction) error {
	txn := newTxn(l.accounts)

	payerAcct := txn.load(payer)
	if payerAcct.lamports < fee {
		return crowdfund.ErrInsufficientFeeFunds
	}
	payerAcct.lamports -= fee

	for i, ix := range instructions {
		if err := l.execute(txn, signers, ix); err != nil {
			return &crowdfund.InstructionError{Index: i, Err: err}
		}
	}

	txn.commit()
	return nil
}

func (l *Ledger) execute(txn *txn, signers map[sol.PublicKey]bool, ix sol.Instruction) error {
	data, err := ix.Data()
	if err != nil {
		return errors.Wrap(err, "failed to read instruction data")
	}

	metas := ix.Accounts()
	for _, m := range metas {
		if m.IsSigner && !signers[m.PublicKey] {
			return crowdfund.ErrMissingSigner
		}
	}

	switch ix.ProgramID() {
	case sol.SystemProgramID:
		return executeSystem(txn, metas, data)
	case l.program:
		return l.executeCrowdfund(txn, metas, data)
	}
	return crowdfund.ErrProgramNotFound
}

func (l *Ledger) instructionName(ix sol.Instruction) string {
	switch ix.ProgramID() {
	case sol.SystemProgramID:
		return "system"
	case l.program:
		data, err := ix.Data()
		if err != nil {
			return "unknown"
		}
		typ, _ := crowdfund.IdentifyInstruction(data)
		return typ.String()
	}
	return ix.ProgramID().String()
}

func (l *Ledger) Account(ctx context.Context, address sol.PublicKey) (*crowdfund.AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[address]
	if !ok {
		return nil, crowdfund.ErrAccountNotFound
	}
	return &crowdfund.AccountInfo{
		Lamports:   acct.lamports,
		Owner:      acct.owner,
		Data:       append([]byte(nil), acct.data...),
		Executable: acct.executable,
	}, nil
}

func (l *Ledger) Balance(ctx context.Context, address sol.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if acct, ok := l.accounts[address]; ok {
		return acct.lamports, nil
	}
	return 0, nil
}

func (l *Ledger) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return MinimumBalance(size), nil
}

// Transactions returns every processed transaction, failed ones included,
// oldest first.
func (l *Ledger) Transactions() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Record(nil), l.records...)
}

func (l *Ledger) Slot() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slot
}

func (l *Ledger) blockhash() sol.Hash {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], l.slot)
	return sol.Hash(sha256.Sum256(append([]byte("blockhash"), b[:]...)))
}

func (l *Ledger) signatureFor(kind string, payload []byte) sol.Signature {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], l.slot)
	first := sha256.Sum256(append(append([]byte(kind), b[:]...), payload...))
	second := sha256.Sum256(first[:])

	var sig sol.Signature
	copy(sig[:32], first[:])
	copy(sig[32:], second[:])
	return sig
}

// txn is a copy-on-write view over the committed accounts.
type txn struct {
	base  map[sol.PublicKey]*account
	dirty map[sol.PublicKey]*account
}

func newTxn(base map[sol.PublicKey]*account) *txn {
	return &txn{base: base, dirty: make(map[sol.PublicKey]*account)}
}

// load returns a mutable copy of the account. Missing accounts come back
// empty and owned by the system program.
func (t *txn) load(key sol.PublicKey) *account {
	if acct, ok := t.dirty[key]; ok {
		return acct
	}
	var acct *account
	if committed, ok := t.base[key]; ok {
		acct = committed.clone()
	} else {
		acct = &account{owner: sol.SystemProgramID}
	}
	t.dirty[key] = acct
	return acct
}

func (t *txn) commit() {
	for key, acct := range t.dirty {
		if acct.empty() && !acct.executable {
			delete(t.base, key)
			continue
		}
		t.base[key] = acct
	}
}
