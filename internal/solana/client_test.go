package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/example/crowdfund/internal/crowdfund"
)

// rpcServer answers JSON-RPC calls from a table of canned results keyed by
// method. A handler may return an error object instead of a result.
type rpcServer struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string]func(call int) (result interface{}, rpcErr interface{})
}

func newRPCServer(t *testing.T) (*rpcServer, *httptest.Server) {
	s := &rpcServer{
		calls:   make(map[string]int),
		results: make(map[string]func(int) (interface{}, interface{})),
	}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *rpcServer) on(method string, fn func(call int) (interface{}, interface{})) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[method] = fn
}

func (s *rpcServer) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *rpcServer) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	call := s.calls[req.Method]
	fn := s.results[req.Method]
	s.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if fn == nil {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
	} else if result, rpcErr := fn(call); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func withContext(value interface{}) map[string]interface{} {
	return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": value}
}

func fixed(result interface{}) func(int) (interface{}, interface{}) {
	return func(int) (interface{}, interface{}) { return result, nil }
}

func status(confirmation string, txErr interface{}) interface{} {
	return withContext([]interface{}{map[string]interface{}{
		"slot":               1,
		"confirmations":      nil,
		"err":                txErr,
		"confirmationStatus": confirmation,
	}})
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "confirmed",
		WithPollInterval(5*time.Millisecond),
		WithConfirmTimeout(500*time.Millisecond),
	)
}

func donateInstruction(t *testing.T, payer sol.PrivateKey) sol.Instruction {
	t.Helper()
	ix, err := crowdfund.NewDonateInstruction(
		&crowdfund.DonateInstructionAccounts{Campaign: sol.NewWallet().PublicKey(), User: payer.PublicKey()},
		&crowdfund.DonateInstructionArgs{Amount: 1},
	)
	require.NoError(t, err)
	return ix
}

func serveBlockhash(s *rpcServer) {
	s.on("getLatestBlockhash", fixed(withContext(map[string]interface{}{
		"blockhash":            sol.NewWallet().PublicKey().String(),
		"lastValidBlockHeight": 100,
	})))
}

func TestClient_ErrorPropagation(t *testing.T) {
	cl := NewClient("http://127.0.0.1:5999", "finalized")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := cl.GetBalance(ctx, sol.NewWallet().PublicKey())
	assert.Error(t, err)
}

func TestClient_DefaultCommitment(t *testing.T) {
	assert.EqualValues(t, "confirmed", NewClient("http://127.0.0.1:5999", "").Commitment())
	assert.EqualValues(t, "finalized", NewClient("http://127.0.0.1:5999", "finalized").Commitment())
}

func TestClient_Submit_WaitsForCommitment(t *testing.T) {
	s, srv := newRPCServer(t)
	payer := sol.NewWallet().PrivateKey
	expected := sol.Signature{9, 9, 9}

	serveBlockhash(s)
	s.on("sendTransaction", fixed(expected.String()))
	s.on("getSignatureStatuses", func(call int) (interface{}, interface{}) {
		switch call {
		case 1:
			return withContext([]interface{}{nil}), nil
		case 2:
			return status("processed", nil), nil
		}
		return status("confirmed", nil), nil
	})

	sig, err := newTestClient(srv).Submit(context.Background(), payer, donateInstruction(t, payer))
	require.NoError(t, err)
	assert.Equal(t, expected, sig)
	assert.Equal(t, 3, s.count("getSignatureStatuses"))
	assert.Equal(t, 1, s.count("sendTransaction"))
}

func TestClient_Submit_ProgramErrorFromStatus(t *testing.T) {
	s, srv := newRPCServer(t)
	payer := sol.NewWallet().PrivateKey

	serveBlockhash(s)
	s.on("sendTransaction", fixed(sol.Signature{1}.String()))
	s.on("getSignatureStatuses", fixed(status("processed", map[string]interface{}{
		"InstructionError": []interface{}{0, "IncorrectProgramId"},
	})))

	_, err := newTestClient(srv).Submit(context.Background(), payer, donateInstruction(t, payer))
	assert.ErrorIs(t, err, crowdfund.ErrUnauthorized)
	assert.Equal(t, 1, s.count("getSignatureStatuses"))
}

func TestClient_Submit_PreflightFailure(t *testing.T) {
	s, srv := newRPCServer(t)
	payer := sol.NewWallet().PrivateKey

	serveBlockhash(s)
	s.on("sendTransaction", func(int) (interface{}, interface{}) {
		return nil, map[string]interface{}{
			"code":    -32002,
			"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0xbc4",
			"data": map[string]interface{}{
				"err":  map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 3012}}},
				"logs": []string{},
			},
		}
	})

	_, err := newTestClient(srv).Submit(context.Background(), payer, donateInstruction(t, payer))
	assert.ErrorIs(t, err, crowdfund.ErrAccountNotInitialized)
	assert.Zero(t, s.count("getSignatureStatuses"))
}

func TestClient_Submit_ConfirmTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, srv := newRPCServer(t)
	payer := sol.NewWallet().PrivateKey

	serveBlockhash(s)
	s.on("sendTransaction", fixed(sol.Signature{2}.String()))
	s.on("getSignatureStatuses", fixed(withContext([]interface{}{nil})))

	cl := NewClient(srv.URL, "confirmed", WithPollInterval(5*time.Millisecond), WithConfirmTimeout(50*time.Millisecond))
	_, err := cl.Submit(context.Background(), payer, donateInstruction(t, payer))
	assert.ErrorIs(t, err, ErrConfirmTimeout)
	assert.Greater(t, s.count("getSignatureStatuses"), 1)

	// the caller's deadline expires before the client's own
	cl = NewClient(srv.URL, "confirmed", WithPollInterval(5*time.Millisecond), WithConfirmTimeout(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = cl.Submit(ctx, payer, donateInstruction(t, payer))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrConfirmTimeout)

	srv.Close()
}

func TestClient_Account(t *testing.T) {
	s, srv := newRPCServer(t)
	owner := sol.NewWallet().PublicKey()
	state := &crowdfund.Campaign{Admin: owner, Name: "n", Description: "d", AmountDonated: 5}
	data, err := state.Marshal()
	require.NoError(t, err)

	found := sol.NewWallet().PublicKey()
	s.on("getAccountInfo", func(call int) (interface{}, interface{}) {
		if call == 1 {
			return withContext(map[string]interface{}{
				"lamports":   63_530_885,
				"owner":      crowdfund.ProgramID.String(),
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
				"rentEpoch":  0,
			}), nil
		}
		return withContext(nil), nil
	})

	cl := newTestClient(srv)
	info, err := cl.Account(context.Background(), found)
	require.NoError(t, err)
	assert.EqualValues(t, 63_530_885, info.Lamports)
	assert.Equal(t, crowdfund.ProgramID, info.Owner)
	assert.Equal(t, data, info.Data)

	_, err = cl.Account(context.Background(), sol.NewWallet().PublicKey())
	assert.ErrorIs(t, err, crowdfund.ErrAccountNotFound)

	// the same account through the program client
	s.on("getAccountInfo", fixed(withContext(map[string]interface{}{
		"lamports":   63_530_885,
		"owner":      crowdfund.ProgramID.String(),
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"rentEpoch":  0,
	})))
	got, _, err := crowdfund.NewClient(cl, sol.NewWallet().PrivateKey).FetchCampaign(context.Background(), found)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestClient_BalanceRentAirdrop(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("getBalance", fixed(withContext(1234)))
	s.on("getMinimumBalanceForRentExemption", fixed(63_530_880))
	s.on("requestAirdrop", fixed(sol.Signature{3}.String()))
	s.on("getSignatureStatuses", fixed(status("finalized", nil)))

	cl := newTestClient(srv)
	ctx := context.Background()

	balance, err := cl.Balance(ctx, sol.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.EqualValues(t, 1234, balance)

	rent, err := cl.MinimumBalanceForRentExemption(ctx, crowdfund.CampaignAccountSpace)
	require.NoError(t, err)
	assert.EqualValues(t, 63_530_880, rent)

	sig, err := cl.Airdrop(ctx, sol.NewWallet().PublicKey(), crowdfund.LamportsPerSOL)
	require.NoError(t, err)
	assert.Equal(t, sol.Signature{3}, sig)
}

func TestReached(t *testing.T) {
	assert.True(t, reached("finalized", "confirmed"))
	assert.True(t, reached("confirmed", "confirmed"))
	assert.False(t, reached("processed", "confirmed"))
	assert.False(t, reached("", "processed"))
}
