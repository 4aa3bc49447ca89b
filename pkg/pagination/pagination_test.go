package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/items", nil)

	p := FromRequest(r)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?page=3&per_page=50", nil)

	p := FromRequest(r)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset)
}

func TestFromRequest_ClampsAndIgnoresGarbage(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
	}{
		{"per_page over limit", "?per_page=500", 1, 20},
		{"negative page", "?page=-1", 1, 20},
		{"zero page", "?page=0", 1, 20},
		{"non-numeric", "?page=abc&per_page=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/items"+tt.query, nil)
			p := FromRequest(r)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
		})
	}
}

func TestNewResult(t *testing.T) {
	result := NewResult([]string{"a", "b"}, 45, Params{Page: 2, PerPage: 20})

	assert.Equal(t, 45, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasNext)
}

func TestNewResult_LastPage(t *testing.T) {
	result := NewResult([]string{"a"}, 41, Params{Page: 3, PerPage: 20})

	assert.Equal(t, 3, result.TotalPages)
	assert.False(t, result.HasNext)
}

func TestNewResult_NilDataBecomesEmpty(t *testing.T) {
	result := NewResult[string](nil, 0, DefaultParams())

	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, 0, result.TotalPages)
}
