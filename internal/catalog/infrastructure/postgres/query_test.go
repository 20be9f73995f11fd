package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
)

func TestListFilterBuildsPositionalArgs(t *testing.T) {
	cat := int64(4)
	minPrice := decimal.NewFromInt(10)
	where, args := listFilter(domain.ListQuery{CategoryID: &cat, MinPrice: &minPrice, Search: "50%_off"})

	assert.Equal(t, " WHERE p.category_id = $1 AND p.price >= $2 AND (p.name ILIKE $3 OR p.description ILIKE $3)", where)
	assert.Equal(t, []any{int64(4), minPrice, `%50\%\_off%`}, args)
}

func TestListFilterEmpty(t *testing.T) {
	where, args := listFilter(domain.ListQuery{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestOrderClauseIsWhitelisted(t *testing.T) {
	assert.Equal(t, "p.price DESC, p.id DESC", orderClause(domain.OrderPriceDesc))
	assert.Equal(t, "p.created_at ASC, p.id ASC", orderClause("anything else"))
}
