package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
)

// Service exposes the account registry. Listings go through a read-through
// redis cache because the chart of accounts is read-mostly; the posting path
// never consults this cache (account existence is re-checked inside the
// posting transaction).
type Service struct {
	repo  Repository
	cache *cache.JSONCache
}

// NewService constructs the registry service. cache may be nil.
func NewService(repo Repository, cache *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// GetByCode resolves an account by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Account{}, errors.New("accounts: code required")
	}
	return s.repo.GetByCode(ctx, code)
}

// GetByID resolves an account by identifier.
func (s *Service) GetByID(ctx context.Context, id int64) (Account, error) {
	if id == 0 {
		return Account{}, errors.New("accounts: id required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns accounts ordered by code, cached per filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	if s.cache == nil {
		return s.repo.List(ctx, filter)
	}
	key, err := s.cache.BuildKey(ctx, "coa", "list", string(filter.Type), filter.Category)
	if err != nil {
		return s.repo.List(ctx, filter)
	}
	var accounts []Account
	err = s.cache.FetchJSON(ctx, key, &accounts, func(ctx context.Context) (interface{}, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create registers a new account. Duplicate codes are rejected.
func (s *Service) Create(ctx context.Context, in Account) (Account, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return Account{}, errors.New("accounts: code required")
	}
	if in.Name == "" {
		return Account{}, errors.New("accounts: name required")
	}
	if !in.Type.Valid() {
		return Account{}, errors.New("accounts: unknown account type " + string(in.Type))
	}
	account, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Account{}, err
	}
	_ = s.cache.Bump(ctx)
	return account, nil
}

// Rename updates the display name. The code stays immutable: renames are the
// only administrative mutation allowed once a line references the account.
func (s *Service) Rename(ctx context.Context, id int64, name string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, errors.New("accounts: name required")
	}
	account, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return Account{}, err
	}
	_ = s.cache.Bump(ctx)
	return account, nil
}
