package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query string
		want  PageRequest
	}{
		{"", PageRequest{1, DefaultPageSize}},
		{"?page=3&pageSize=25", PageRequest{3, 25}},
		{"?page=0&pageSize=1000", PageRequest{1, DefaultPageSize}},
		{"?page=abc&pageSize=-2", PageRequest{1, DefaultPageSize}},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/books"+tc.query, nil)

		assert.Equal(t, tc.want, ParsePaginationParams(c), tc.query)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 24)
	for i := range items {
		items[i] = i
	}

	page, info := Paginate(items, PageRequest{Page: 1, Size: 10})
	assert.Equal(t, items[:10], page)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, int64(24), info.TotalItems)

	page, info = Paginate(items, PageRequest{Page: 3, Size: 10})
	assert.Equal(t, items[20:], page)
	assert.Equal(t, 3, info.CurrentPage)

	page, info = Paginate(items, PageRequest{Page: 9, Size: 10})
	assert.Empty(t, page)
	assert.Equal(t, 3, info.CurrentPage)
}

func TestPaginateEmpty(t *testing.T) {
	page, info := Paginate([]string{}, PageRequest{Page: 1, Size: 10})
	assert.Empty(t, page)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)
	assert.Zero(t, info.TotalItems)
}
