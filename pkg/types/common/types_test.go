package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
}

func TestPagination_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Pagination
		wantPage int
		wantSize int
	}{
		{name: "defaults applied", in: Pagination{}, wantPage: 1, wantSize: defaultPageSize},
		{name: "negative page clamped", in: Pagination{Page: -3, PageSize: 20}, wantPage: 1, wantSize: 20},
		{name: "oversized page size clamped", in: Pagination{Page: 2, PageSize: 100000}, wantPage: 2, wantSize: maxPageSize},
		{name: "valid untouched", in: Pagination{Page: 4, PageSize: 25}, wantPage: 4, wantSize: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
		})
	}
}

func TestPagination_Offset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 50}.Offset())
	assert.Equal(t, 100, Pagination{Page: 3, PageSize: 50}.Offset())
	assert.Equal(t, 0, Pagination{Page: 0, PageSize: 50}.Offset())
}
