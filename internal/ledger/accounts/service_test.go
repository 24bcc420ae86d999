package accounts

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

type stubRepo struct {
	listCalls int
	accounts  []Account
	inserted  []Account
}

func (s *stubRepo) GetByCode(ctx context.Context, code string) (Account, error) {
	for _, a := range s.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (Account, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	s.listCalls++
	return append([]Account(nil), s.accounts...), nil
}

func (s *stubRepo) Insert(ctx context.Context, in Account) (Account, error) {
	in.ID = int64(len(s.accounts) + 1)
	s.accounts = append(s.accounts, in)
	s.inserted = append(s.inserted, in)
	return in, nil
}

func (s *stubRepo) Rename(ctx context.Context, id int64, name string) (Account, error) {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i].Name = name
			return s.accounts[i], nil
		}
	}
	return Account{}, ErrNotFound
}

func newCachedService(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &stubRepo{accounts: []Account{
		{ID: 1, Code: "10000", Name: "Cash", Type: AccountTypeAsset, IsActive: true},
		{ID: 2, Code: "40000", Name: "Sales Revenue", Type: AccountTypeRevenue, IsActive: true},
	}}
	return NewService(repo, cache.NewJSONCache(client, "coa", time.Minute)), repo
}

func TestListUsesCache(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	first, err := svc.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d accounts", len(first))
	}
	if _, err := svc.List(ctx, ListFilter{}); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("repo hit %d times, cache should have served the second read", repo.listCalls)
	}
}

func TestCreateBustsCache(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	if _, err := svc.List(ctx, ListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Create(ctx, Account{Code: "60000", Name: "Rent Expense", Type: AccountTypeExpense}); err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := svc.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(after) != 3 {
		t.Fatalf("stale listing after create: %d accounts", len(after))
	}
	if repo.listCalls != 2 {
		t.Fatalf("repo hit %d times, want 2", repo.listCalls)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Account{Code: "", Name: "x", Type: AccountTypeAsset}); err == nil {
		t.Fatal("empty code accepted")
	}
	if _, err := svc.Create(ctx, Account{Code: "70000", Name: "x", Type: AccountType("WEIRD")}); err == nil {
		t.Fatal("unknown type accepted")
	}
}
