package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"restock-service/app/domain"
)

type customerRepository struct {
	conn *sql.DB
}

func NewCustomerRepository(db *sql.DB) domain.CustomerRepository {
	return &customerRepository{db}
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (domain.Customer, error) {
	query := `SELECT id, email, first_name, last_name FROM customers WHERE id = $1`

	var customer domain.Customer
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&customer.ID, &customer.Email,
		&customer.FirstName, &customer.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customer, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[customerRepository] GetByID", "queryRowContext", err)
		return customer, err
	}

	return customer, nil
}
