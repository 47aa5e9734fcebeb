// Package service ties the pipeline together: wait for credentials, pull
// the three resource types through the cache (concurrently, joined before
// anything downstream runs), validate them into domain models, and hand
// back one immutable snapshot the aggregators work from.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/finscope/finscope/pkg/api"
	"github.com/finscope/finscope/pkg/cache"
	"github.com/finscope/finscope/pkg/filter"
	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
	"github.com/finscope/finscope/pkg/validate"
)

// Cache keys, one per resource type.
const (
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
	KeyAccounts     = "accounts"
)

// Snapshot is one coherent view of the upstream data. It is not mutated
// after Load returns; feeding it to several aggregators at once is safe.
type Snapshot struct {
	Transactions []models.Transaction
	Categories   []models.Category
	Accounts     []models.Account
	Index        *taxonomy.Index
}

// Filter applies p to the snapshot's transactions.
func (s *Snapshot) Filter(p filter.Params) []models.Transaction {
	return filter.Apply(s.Transactions, p)
}

// Loader fetches, caches and validates upstream data.
type Loader struct {
	client *api.Client
	cache  *cache.Cache
	logger *log.Logger
}

// NewLoader wires a loader from its collaborators.
func NewLoader(client *api.Client, c *cache.Cache, logger *log.Logger) *Loader {
	return &Loader{client: client, cache: c, logger: logger}
}

// Load produces a snapshot. The three resource fetches run concurrently;
// pages within one resource stay sequential inside the client.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	var rawTxs, rawCats, rawAccts []json.RawMessage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rawTxs, err = l.fetch(gctx, KeyTransactions, api.PathTransactions)
		return err
	})
	g.Go(func() (err error) {
		rawCats, err = l.fetch(gctx, KeyCategories, api.PathCategories)
		return err
	})
	g.Go(func() (err error) {
		rawAccts, err = l.fetch(gctx, KeyAccounts, api.PathAccounts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	txs, err := validate.Transactions(api.Decode[models.RawTransaction](rawTxs, l.logger), l.logger)
	if err != nil {
		return nil, fmt.Errorf("validate transactions: %w", err)
	}
	cats, err := validate.Categories(api.Decode[models.RawCategory](rawCats, l.logger), l.logger)
	if err != nil {
		return nil, fmt.Errorf("validate categories: %w", err)
	}
	accts, err := validate.Accounts(api.Decode[models.RawAccount](rawAccts, l.logger), l.logger)
	if err != nil {
		return nil, fmt.Errorf("validate accounts: %w", err)
	}

	l.logger.Info("snapshot loaded",
		"transactions", len(txs), "categories", len(cats), "accounts", len(accts))

	return &Snapshot{
		Transactions: txs,
		Categories:   cats,
		Accounts:     accts,
		Index:        taxonomy.Build(cats, l.logger),
	}, nil
}

// Refresh drops all cached datasets so the next Load refetches everything.
func (l *Loader) Refresh(ctx context.Context) error {
	return l.cache.Invalidate(ctx, KeyTransactions, KeyCategories, KeyAccounts)
}

func (l *Loader) fetch(ctx context.Context, key, path string) ([]json.RawMessage, error) {
	return l.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]json.RawMessage, error) {
		return l.client.FetchAll(ctx, path)
	})
}
