// Package solana implements crowdfund.Chain over a Solana JSON-RPC endpoint.
package solana

import (
	"context"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/retry"
	"github.com/example/crowdfund/internal/retry/backoff"
)

// ErrConfirmTimeout is returned when a sent transaction does not reach the
// client's commitment in time. The transaction may still land.
var ErrConfirmTimeout = errors.New("transaction not confirmed before deadline")

var errPending = errors.New("transaction pending")
var errFailed = errors.New("transaction failed")

type Client struct {
	c              *rpc.Client
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
	log            *zap.Logger
}

type Option func(*Client)

func WithLogger(log *zap.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// WithConfirmTimeout bounds how long Submit waits for the commitment.
func WithConfirmTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.confirmTimeout = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(cl *Client) { cl.pollInterval = d }
}

func NewClient(rpcURL string, commitment string, opts ...Option) *Client {
	cm := rpc.CommitmentType(commitment)
	if cm == "" {
		cm = rpc.CommitmentConfirmed
	}
	cl := &Client{
		c:              rpc.New(rpcURL),
		commitment:     cm,
		confirmTimeout: 60 * time.Second,
		pollInterval:   500 * time.Millisecond,
		log:            zap.NewNop(),
	}
	for _, o := range opts {
		o(cl)
	}
	return cl
}

func (cl *Client) Commitment() rpc.CommitmentType { return cl.commitment }

// Submit fetches a recent blockhash, signs and sends the instructions, then
// polls signature statuses until the transaction reaches the commitment.
func (cl *Client) Submit(ctx context.Context, payer sol.PrivateKey, instructions ...sol.Instruction) (sol.Signature, error) {
	start := time.Now()
	bh, err := cl.c.GetLatestBlockhash(ctx, cl.commitment)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "get latest blockhash")
	}

	tx, err := crowdfund.BuildTransaction(payer, bh.Value.Blockhash, instructions...)
	if err != nil {
		return sol.Signature{}, err
	}

	sig, err := cl.c.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: cl.commitment,
	})
	if err != nil {
		cl.log.Debug("send transaction failed", zap.Error(err))
		return sol.Signature{}, parseSendError(err)
	}

	cl.log.Debug("tx_submitted", zap.String("signature", sig.String()))

	if err := cl.confirm(ctx, sig); err != nil {
		return sig, err
	}
	cl.log.Info("tx_confirmed",
		zap.String("signature", sig.String()),
		zap.String("commitment", string(cl.commitment)),
		zap.Duration("latency", time.Since(start)),
	)
	return sig, nil
}

// confirm returns ErrConfirmTimeout when the client's own deadline passes and
// the caller's context error when the caller gives up first.
func (cl *Client) confirm(parent context.Context, sig sol.Signature) error {
	ctx, cancel := context.WithTimeout(parent, cl.confirmTimeout)
	defer cancel()

	var txErr error
	_, err := retry.Retry(ctx,
		func(ctx context.Context) error {
			res, err := cl.c.GetSignatureStatuses(ctx, false, sig)
			if err != nil {
				return errors.Wrap(errPending, err.Error())
			}
			if len(res.Value) == 0 || res.Value[0] == nil {
				return errPending
			}
			status := res.Value[0]
			if status.Err != nil {
				txErr = crowdfund.ParseTransactionError(status.Err)
				return errFailed
			}
			if !reached(status.ConfirmationStatus, cl.commitment) {
				return errPending
			}
			return nil
		},
		retry.NonRetriableErrors(errFailed),
		retry.Backoff(backoff.Exponential(cl.pollInterval/4, 2), cl.pollInterval),
	)
	switch {
	case err == nil:
		return nil
	case txErr != nil:
		return txErr
	case parent.Err() != nil:
		return errors.Wrapf(parent.Err(), "confirm %s", sig)
	case ctx.Err() != nil:
		return errors.Wrap(ErrConfirmTimeout, sig.String())
	}
	return err
}

var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	got, ok := commitmentRank[string(status)]
	if !ok {
		return false
	}
	return got >= commitmentRank[string(want)]
}

// parseSendError surfaces preflight simulation failures as program errors.
func parseSendError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		if data, ok := rpcErr.Data.(map[string]interface{}); ok {
			if raw, ok := data["err"]; ok && raw != nil {
				return crowdfund.ParseTransactionError(raw)
			}
		}
	}
	return errors.Wrap(err, "send transaction")
}

func (cl *Client) Account(ctx context.Context, address sol.PublicKey) (*crowdfund.AccountInfo, error) {
	res, err := cl.c.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: cl.commitment,
		Encoding:   sol.EncodingBase64,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, crowdfund.ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "get account info")
	}

	return &crowdfund.AccountInfo{
		Lamports:   res.Value.Lamports,
		Owner:      res.Value.Owner,
		Data:       res.Value.Data.GetBinary(),
		Executable: res.Value.Executable,
	}, nil
}

func (cl *Client) Balance(ctx context.Context, address sol.PublicKey) (uint64, error) {
	lamports, lat, err := cl.GetBalance(ctx, address)
	cl.log.Debug("rpc_fetch", zap.String("address", address.String()), zap.Duration("latency", lat), zap.Error(err))
	return lamports, err
}

func (cl *Client) GetBalance(ctx context.Context, pubkey sol.PublicKey) (uint64, time.Duration, error) {
	start := time.Now()
	res, err := cl.c.GetBalance(ctx, pubkey, cl.commitment)
	lat := time.Since(start)
	if err != nil {
		return 0, lat, errors.Wrap(err, "get balance")
	}
	return uint64(res.Value), lat, nil
}

func (cl *Client) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	v, err := cl.c.GetMinimumBalanceForRentExemption(ctx, size, cl.commitment)
	if err != nil {
		return 0, errors.Wrap(err, "get minimum balance for rent exemption")
	}
	return v, nil
}

// Airdrop requests lamports from the cluster faucet and waits for the
// credit to reach the commitment. Only local and test clusters honour it.
func (cl *Client) Airdrop(ctx context.Context, address sol.PublicKey, lamports uint64) (sol.Signature, error) {
	sig, err := cl.c.RequestAirdrop(ctx, address, lamports, cl.commitment)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "request airdrop")
	}
	if err := cl.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
