package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// BookRepository reads the book catalogue
type BookRepository struct {
	db Querier
}

// NewBookRepository creates a new BookRepository
func NewBookRepository(db Querier) *BookRepository {
	return &BookRepository{db: db}
}

// BookExists checks if a book with the given ID exists
func (r *BookRepository) BookExists(ctx context.Context, id int64) (bool, error) {
	query := squirrel.Select("1").
		Prefix("SELECT EXISTS (").
		From("books").
		Where(squirrel.Eq{"id": id}).
		Suffix(")").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}
