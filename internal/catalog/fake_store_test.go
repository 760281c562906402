package catalog_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/common"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	gets     int
}

func newFakeStore(products ...catalog.Product) *fakeStore {
	s := &fakeStore{products: map[uuid.UUID]catalog.Product{}}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) Insert(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Code == p.Code {
			return catalog.Product{}, common.ErrConflict
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeStore) Update(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return catalog.Product{}, common.ErrNotFound
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeStore) Upsert(_ context.Context, p catalog.Product) (catalog.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.products {
		if existing.Code == p.Code {
			p.ID = id
			s.products[id] = p
			return p, false, nil
		}
	}
	p.ID = uuid.New()
	s.products[p.ID] = p
	return p, true, nil
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, common.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) GetByCodes(_ context.Context, codes []string) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Product
	for _, code := range codes {
		for _, p := range s.products {
			if p.Code == code {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) List(_ context.Context, params catalog.ListParams) ([]catalog.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []catalog.Product
	for _, p := range s.products {
		if params.ActiveOnly && !p.Active {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Code), strings.ToLower(params.Search)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	total := len(all)
	if params.Offset >= total {
		return []catalog.Product{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return all[params.Offset:end], total, nil
}

func (s *fakeStore) AdjustStock(_ context.Context, id uuid.UUID, delta int) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, common.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return catalog.Product{}, catalog.ErrStockExhausted
	}
	p.Stock += delta
	s.products[id] = p
	return p, nil
}
