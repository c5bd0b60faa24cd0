package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestProductSearchFiltersAndPages(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE LOWER(p.name) LIKE ? AND p.category_id = ?")).
		WithArgs("%cola%", "C1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.name ASC LIMIT ? OFFSET ?")).
		WithArgs("%cola%", "C1", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category_id", "category"}).
			AddRow("P3", "Cola Zero", "C1", "Beverages"))

	out, total, err := repo.Search(context.Background(), ProductSearchQuery{Name: "Cola", CategoryID: "C1", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, out, 1)
	require.Equal(t, "Beverages", out[0].CategoryName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = ?")).
		WithArgs("C1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "C1"), ErrNotFound)
}
