package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                string
		page, perPage, total int
		want                Pagination
	}{
		{"exact", 1, 10, 30, Pagination{Page: 1, PerPage: 10, Total: 30, TotalPages: 3}},
		{"remainder", 2, 10, 31, Pagination{Page: 2, PerPage: 10, Total: 31, TotalPages: 4}},
		{"empty", 1, 10, 0, Pagination{Page: 1, PerPage: 10, Total: 0, TotalPages: 0}},
		{"defaults", 0, 0, 5, Pagination{Page: 1, PerPage: DefaultPerPage, Total: 5, TotalPages: 1}},
		{"capped", 1, 500, 250, Pagination{Page: 1, PerPage: MaxPerPage, Total: 250, TotalPages: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewPagination(tc.page, tc.perPage, tc.total))
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 20, 100)
	assert.Equal(t, 40, p.Offset())
	assert.True(t, p.HasNext())
	assert.False(t, NewPagination(5, 20, 100).HasNext())
}
