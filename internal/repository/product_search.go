package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/pos-system/internal/model"
)

// ProductSearchQuery defines filters and pagination for listing products.
// Empty filters match everything.
type ProductSearchQuery struct {
	Name       string
	CategoryID string
	Page       int
	PageSize   int
}

// Search returns one page of products matching q and the total number of
// matches.
func (r *ProductRepo) Search(ctx context.Context, q ProductSearchQuery) ([]*model.Product, int64, error) {
	where := []string{}
	args := []any{}

	if q.Name != "" {
		where = append(where, "LOWER(p.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, q.CategoryID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM products p WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := productSelect + ` WHERE ` + cond + ` ORDER BY p.name ASC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Product, 0, limit)
	for rows.Next() {
		p := new(model.Product)
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
