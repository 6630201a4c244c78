package customers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/shared"
)

type mockRepository struct {
	items  map[int64]*Customer
	nextID int64
}

func newMockRepository(seed ...Customer) *mockRepository {
	m := &mockRepository{items: map[int64]*Customer{}, nextID: 1}
	for _, c := range seed {
		c := c
		if c.ID == 0 {
			c.ID = m.nextID
		}
		if c.ID >= m.nextID {
			m.nextID = c.ID + 1
		}
		m.items[c.ID] = &c
	}
	return m
}

func (m *mockRepository) sorted() []Customer {
	out := make([]Customer, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Customer, int, error) {
	var matched []Customer
	for _, c := range m.sorted() {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Company), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Region != "" && !strings.EqualFold(c.Region, filter.Region) {
			continue
		}
		matched = append(matched, c)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, in Input) (*Customer, error) {
	c := &Customer{ID: m.nextID, Name: in.Name, Company: in.Company, Email: in.Email, Phone: in.Phone,
		AddressLine: in.AddressLine, City: in.City, Region: in.Region, Country: in.Country, Notes: in.Notes,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	m.items[c.ID] = c
	m.nextID++
	return m.Get(ctx, c.ID)
}

func (m *mockRepository) Update(ctx context.Context, id int64, in Input) (*Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c.Name, c.Company, c.Email, c.Region = in.Name, in.Company, in.Email, in.Region
	return m.Get(ctx, id)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockRepository) All(ctx context.Context) ([]Customer, error) {
	return m.sorted(), nil
}

func (m *mockRepository) Count(ctx context.Context) (int, error) {
	return len(m.items), nil
}

func TestServiceCreateNormalisesAndValidates(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), Input{Name: "  ", Email: "not-mail"})
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")

	created, err := svc.Create(context.Background(), Input{Name: " Wanjiru Otieno ", Email: " Wanjiru@Farm.KE ", Region: "Central"})
	require.NoError(t, err)
	assert.Equal(t, "Wanjiru Otieno", created.Name)
	assert.Equal(t, "wanjiru@farm.ke", created.Email)
}

func TestServiceDeleteRefusesReferencedCustomer(t *testing.T) {
	repo := newMockRepository(
		Customer{ID: 1, Name: "Kamau Farms", QuoteCount: 2},
		Customer{ID: 2, Name: "Rift Growers"},
	)
	svc := NewService(repo)

	err := svc.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrInUse)
	assert.Contains(t, repo.items, int64(1))

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.NotContains(t, repo.items, int64(2))

	assert.ErrorIs(t, svc.Delete(context.Background(), 99), shared.ErrNotFound)
}

func TestServiceListPaginatesAndFilters(t *testing.T) {
	var seed []Customer
	for i := 1; i <= 15; i++ {
		region := "Central"
		if i%3 == 0 {
			region = "Coast"
		}
		seed = append(seed, Customer{ID: int64(i), Name: fmt.Sprintf("Customer %02d", i), Region: region})
	}
	svc := NewService(newMockRepository(seed...))

	items, meta, err := svc.List(context.Background(), ListFilter{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalPages)
	assert.Equal(t, 15, meta.Total)
	assert.Len(t, items, 3)

	coast, meta, err := svc.List(context.Background(), ListFilter{Region: "coast"})
	require.NoError(t, err)
	assert.Equal(t, 5, meta.Total)
	for _, c := range coast {
		assert.Equal(t, "Coast", c.Region)
	}

	empty, _, err := svc.List(context.Background(), ListFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
