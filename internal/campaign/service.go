// Package campaign is the application layer over the program client: cached
// snapshots, batch lookups and an event log of writes.
package campaign

import (
	"context"
	"sort"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/crowdfund/internal/cache"
	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/events"
)

// Snapshot is a campaign as read from the chain.
type Snapshot struct {
	Address          string    `json:"address"`
	Owner            string    `json:"owner,omitempty"`
	Admin            string    `json:"admin"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	AmountDonated    uint64    `json:"amount_donated"`
	AmountDonatedSOL string    `json:"amount_donated_sol"`
	Lamports         uint64    `json:"lamports"`
	Source           string    `json:"source"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Receipt is the outcome of a write.
type Receipt struct {
	Signature string    `json:"signature"`
	Campaign  *Snapshot `json:"campaign,omitempty"`
}

type Wallet struct {
	Address     string `json:"address"`
	Lamports    uint64 `json:"lamports"`
	SOL         string `json:"sol"`
	Campaign    string `json:"campaign"`
	HasCampaign bool   `json:"has_campaign"`
}

type LookupError struct {
	Owner string `json:"owner"`
	Error string `json:"error"`
}

type LookupResult struct {
	Campaigns []*Snapshot   `json:"campaigns"`
	Errors    []LookupError `json:"errors,omitempty"`
}

// Deps bundles dependencies needed by the service.
type Deps struct {
	Client         *crowdfund.Client
	Cache          *cache.Cache[Snapshot]
	Events         events.Store
	Log            *zap.Logger
	Timeout        time.Duration
	MaxConcurrency int
}

type Service struct{ deps Deps }

func NewService(deps Deps) *Service {
	if deps.Cache == nil {
		deps.Cache = cache.New[Snapshot](5 * time.Second)
	}
	if deps.Events == nil {
		deps.Events = events.NewMemoryStore()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 5 * time.Second
	}
	if deps.MaxConcurrency <= 0 {
		deps.MaxConcurrency = 16
	}
	return &Service{deps: deps}
}

func (s *Service) Client() *crowdfund.Client { return s.deps.Client }

func (s *Service) Initialize(ctx context.Context) (*Receipt, error) {
	campaign, err := s.deps.Client.CampaignAddress()
	if err != nil {
		return nil, err
	}

	sig, err := s.deps.Client.Initialize(ctx)
	s.record(ctx, &events.Event{Campaign: campaign.String(), Kind: events.KindInitialize}, sig, err)
	if err != nil {
		return nil, err
	}
	return &Receipt{Signature: sig.String()}, nil
}

// Create initialises the wallet's campaign and returns it as stored.
func (s *Service) Create(ctx context.Context, name, description string) (*Receipt, error) {
	sig, campaign, err := s.deps.Client.Create(ctx, name, description)
	if !campaign.IsZero() {
		s.deps.Cache.Invalidate(campaign.String())
		s.record(ctx, &events.Event{Campaign: campaign.String(), Kind: events.KindCreate}, sig, err)
	}
	if err != nil {
		return nil, err
	}
	return s.receipt(ctx, sig, campaign), nil
}

func (s *Service) Donate(ctx context.Context, campaign sol.PublicKey, amount uint64) (*Receipt, error) {
	sig, err := s.deps.Client.Donate(ctx, campaign, amount)
	s.deps.Cache.Invalidate(campaign.String())
	s.record(ctx, &events.Event{Campaign: campaign.String(), Kind: events.KindDonate, Amount: amount}, sig, err)
	if err != nil {
		return nil, err
	}
	return s.receipt(ctx, sig, campaign), nil
}

func (s *Service) Withdraw(ctx context.Context, campaign sol.PublicKey, amount uint64) (*Receipt, error) {
	sig, err := s.deps.Client.Withdraw(ctx, campaign, amount)
	s.deps.Cache.Invalidate(campaign.String())
	s.record(ctx, &events.Event{Campaign: campaign.String(), Kind: events.KindWithdraw, Amount: amount}, sig, err)
	if err != nil {
		return nil, err
	}
	return s.receipt(ctx, sig, campaign), nil
}

// receipt reads the campaign back after a confirmed write. A failed read does
// not fail the write.
func (s *Service) receipt(ctx context.Context, sig sol.Signature, campaign sol.PublicKey) *Receipt {
	r := &Receipt{Signature: sig.String()}
	snap, err := s.Get(ctx, campaign)
	if err != nil {
		s.deps.Log.Warn("campaign", zap.String("address", campaign.String()), zap.Error(err))
		return r
	}
	r.Campaign = snap
	return r
}

func (s *Service) record(ctx context.Context, e *events.Event, sig sol.Signature, err error) {
	e.Actor = s.deps.Client.Wallet().String()
	if err != nil {
		e.Error = err.Error()
	} else {
		e.Signature = sig.String()
	}

	s.deps.Log.Info("campaign",
		zap.String("kind", string(e.Kind)),
		zap.String("address", e.Campaign),
		zap.Uint64("amount", e.Amount),
		zap.String("signature", e.Signature),
		zap.String("error", e.Error),
	)
	if rerr := s.deps.Events.Record(ctx, e); rerr != nil {
		s.deps.Log.Warn("event record failed", zap.String("address", e.Campaign), zap.Error(rerr))
	}
}

// Get returns the campaign at address, from cache when fresh.
func (s *Service) Get(ctx context.Context, address sol.PublicKey) (*Snapshot, error) {
	key := address.String()
	snap, source, err := s.deps.Cache.GetOrFetch(ctx, key, func(ctx context.Context) (Snapshot, error) {
		ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()

		start := time.Now()
		state, lamports, err := s.deps.Client.FetchCampaign(ctx, address)
		if err != nil {
			return Snapshot{}, err
		}
		s.deps.Log.Debug("rpc_fetch", zap.String("address", key), zap.Duration("latency", time.Since(start)))
		return Snapshot{
			Address:          key,
			Admin:            state.Admin.String(),
			Name:             state.Name,
			Description:      state.Description,
			AmountDonated:    state.AmountDonated,
			AmountDonatedSOL: crowdfund.FormatSOL(state.AmountDonated),
			Lamports:         lamports,
			FetchedAt:        time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	snap.Source = source
	return &snap, nil
}

// Lookup resolves each owner to its campaign PDA and fetches it, at most
// MaxConcurrency at a time. Duplicates are dropped; failures are reported per
// owner and never fail the batch.
func (s *Service) Lookup(ctx context.Context, owners []string) *LookupResult {
	owners = dedupe(owners)
	res := &LookupResult{Campaigns: make([]*Snapshot, 0, len(owners))}

	type outcome struct {
		snap *Snapshot
		err  error
	}
	outcomes := make([]outcome, len(owners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.MaxConcurrency)
	for i, owner := range owners {
		i, owner := i, owner
		pk, err := sol.PublicKeyFromBase58(owner)
		if err != nil {
			outcomes[i].err = errors.New("invalid public key")
			continue
		}
		g.Go(func() error {
			address, err := s.deps.Client.CampaignAddressOf(pk)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			snap, err := s.Get(gctx, address)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			snap.Owner = owner
			outcomes[i].snap = snap
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		if o.err != nil {
			res.Errors = append(res.Errors, LookupError{Owner: owners[i], Error: o.err.Error()})
			continue
		}
		res.Campaigns = append(res.Campaigns, o.snap)
	}

	sort.Slice(res.Campaigns, func(i, j int) bool { return res.Campaigns[i].Owner < res.Campaigns[j].Owner })
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Owner < res.Errors[j].Owner })
	return res
}

func (s *Service) Events(ctx context.Context, address sol.PublicKey, limit int) ([]*events.Event, error) {
	return s.deps.Events.List(ctx, address.String(), limit)
}

// Wallet describes the configured wallet and whether its campaign exists.
func (s *Service) Wallet(ctx context.Context) (*Wallet, error) {
	client := s.deps.Client
	lamports, err := client.Balance(ctx, client.Wallet())
	if err != nil {
		return nil, err
	}
	campaign, err := client.CampaignAddress()
	if err != nil {
		return nil, err
	}

	_, err = s.Get(ctx, campaign)
	if err != nil && !errors.Is(err, crowdfund.ErrCampaignNotFound) {
		return nil, err
	}

	return &Wallet{
		Address:     client.Wallet().String(),
		Lamports:    lamports,
		SOL:         crowdfund.FormatSOL(lamports),
		Campaign:    campaign.String(),
		HasCampaign: err == nil,
	}, nil
}

func dedupe(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		if _, ok := m[w]; ok {
			continue
		}
		m[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
