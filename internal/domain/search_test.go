package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchFilterNormalize(t *testing.T) {
	f := SearchFilter{Page: 0, PageSize: 0}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 10, f.PageSize)

	f = SearchFilter{Page: -3, PageSize: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)

	f = SearchFilter{Page: 4, PageSize: 25}
	f.Normalize()
	assert.Equal(t, 4, f.Page)
	assert.Equal(t, 25, f.PageSize)
}

func TestSearchFilterOffset(t *testing.T) {
	f := SearchFilter{Page: 1, PageSize: 10}
	assert.Equal(t, 0, f.Offset())

	f = SearchFilter{Page: 3, PageSize: 20}
	assert.Equal(t, 40, f.Offset())
}
