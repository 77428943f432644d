package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"restock-service/app/domain"
	"restock-service/pkg"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

const restockNotificationColumns = `rn.id, rn.product_id, rn.customer_id, rn.country_code, rn.language, rn.created_at, rn.updated_at`

const restockNotificationWithCustomerQuery = `SELECT ` + restockNotificationColumns + `, c.id, c.email, c.first_name, c.last_name
	FROM restock_notifications rn
	LEFT JOIN customers c ON c.id = rn.customer_id
	WHERE rn.product_id = $1
	ORDER BY rn.created_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type restockNotificationRepository struct {
	conn *sql.DB
}

func NewRestockNotificationRepository(db *sql.DB) domain.RestockNotificationRepository {
	return &restockNotificationRepository{db}
}

func (r *restockNotificationRepository) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.conn
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (r *restockNotificationRepository) Create(ctx context.Context, rn *domain.RestockNotification, tx *sql.Tx) error {
	query := `INSERT INTO restock_notifications (id, product_id, customer_id, country_code, language)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at`

	err := r.q(tx).QueryRowContext(ctx, query, rn.ID.String(), rn.ProductID, rn.CustomerID, rn.CountryCode, rn.Language).
		Scan(&rn.CreatedAt, &rn.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: restock notification for product %d", domain.ErrAlreadyExists, rn.ProductID)
		}
		slog.ErrorContext(ctx, "[restockNotificationRepository] Create", "queryRowContext", err)
		return err
	}
	return nil
}

func (r *restockNotificationRepository) Touch(ctx context.Context, productID, customerID int64, tx *sql.Tx) (domain.RestockNotification, error) {
	query := `UPDATE restock_notifications rn SET updated_at = NOW()
	WHERE rn.product_id = $1 AND rn.customer_id = $2
	RETURNING ` + restockNotificationColumns

	rn, err := scanRestockNotification(r.q(tx).QueryRowContext(ctx, query, productID, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rn, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[restockNotificationRepository] Touch", "queryRowContext", err)
		return rn, err
	}
	return rn, nil
}

func (r *restockNotificationRepository) GetByProductIDAndCustomerID(ctx context.Context, productID, customerID int64) (domain.RestockNotification, error) {
	query := `SELECT ` + restockNotificationColumns + `
	FROM restock_notifications rn WHERE rn.product_id = $1 AND rn.customer_id = $2`

	rn, err := scanRestockNotification(r.conn.QueryRowContext(ctx, query, productID, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rn, domain.ErrNotFound
		}
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetByProductIDAndCustomerID", "queryRowContext", err)
		return rn, err
	}
	return rn, nil
}

// GetByProductID is the non-locking read of a product's subscriptions; the engine
// uses LockByProductID instead.
func (r *restockNotificationRepository) GetByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]domain.RestockNotification, error) {
	rows, err := r.q(tx).QueryContext(ctx, restockNotificationWithCustomerQuery, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetByProductID", "queryContext", err)
		return nil, err
	}
	return scanRestockNotificationsWithCustomer(ctx, rows, "GetByProductID")
}

func (r *restockNotificationRepository) LockByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]domain.RestockNotification, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: lock requires a transaction", domain.ErrInternal)
	}

	rows, err := tx.QueryContext(ctx, restockNotificationWithCustomerQuery+` FOR UPDATE OF rn`, productID)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] LockByProductID", "queryContext", err)
		return nil, err
	}
	return scanRestockNotificationsWithCustomer(ctx, rows, "LockByProductID")
}

func (r *restockNotificationRepository) GetListByCustomerID(ctx context.Context, customerID int64, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, error) {
	query := `SELECT ` + restockNotificationColumns + `
	FROM restock_notifications rn WHERE rn.customer_id = $1`
	query += orderAndPage(param)

	rows, err := r.conn.QueryContext(ctx, query, customerID)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetListByCustomerID", "queryContext", err)
		return nil, err
	}
	return scanRestockNotifications(ctx, rows, "GetListByCustomerID")
}

func (r *restockNotificationRepository) GetListByCustomerIDCount(ctx context.Context, customerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM restock_notifications WHERE customer_id = $1`

	var count int64
	if err := r.conn.QueryRowContext(ctx, query, customerID).Scan(&count); err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetListByCustomerIDCount", "queryRowContext", err)
		return 0, err
	}
	return count, nil
}

func (r *restockNotificationRepository) GetList(ctx context.Context, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, error) {
	query := `SELECT ` + restockNotificationColumns + ` FROM restock_notifications rn`
	query += orderAndPage(param)

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetList", "queryContext", err)
		return nil, err
	}
	return scanRestockNotifications(ctx, rows, "GetList")
}

func (r *restockNotificationRepository) GetListCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM restock_notifications`).Scan(&count); err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] GetListCount", "queryRowContext", err)
		return 0, err
	}
	return count, nil
}

func (r *restockNotificationRepository) DeleteByProductID(ctx context.Context, productID int64, ids []uuid.UUID, tx *sql.Tx) (int64, error) {
	query := `DELETE FROM restock_notifications WHERE product_id = $1`
	args := []any{productID}

	if len(ids) > 0 {
		idStrs := make([]string, 0, len(ids))
		for _, id := range ids {
			idStrs = append(idStrs, id.String())
		}
		query += ` AND id = ANY($2::uuid[])`
		args = append(args, idStrs)
	}

	res, err := r.q(tx).ExecContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] DeleteByProductID", "execContext", err)
		return 0, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] DeleteByProductID", "rowsAffected", err)
		return 0, err
	}

	slog.InfoContext(ctx, "[restockNotificationRepository] DeleteByProductID", "productID", productID, "rowsAffected", rowsAffected)
	return rowsAffected, nil
}

func (r *restockNotificationRepository) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	err := pkg.WithTransaction(ctx, r.conn, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
	if err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] WithTransaction", "error", err)
		return err
	}
	return nil
}

// orderAndPage expects SortBy and SortOrder to be whitelisted by the handler.
func orderAndPage(param domain.GetListRestockNotificationRequest) string {
	var clause string
	if param.SortBy != "" {
		clause += fmt.Sprintf(" ORDER BY rn.%s", param.SortBy)
		if param.SortOrder != "" {
			clause += fmt.Sprintf(" %s", param.SortOrder)
		}
	} else {
		clause += ` ORDER BY rn.created_at DESC`
	}

	if param.Page > 0 && param.Limit > 0 {
		offset := (param.Page - 1) * param.Limit
		clause += fmt.Sprintf(" LIMIT %d OFFSET %d", param.Limit, offset)
	}
	return clause
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestockNotification(row rowScanner) (domain.RestockNotification, error) {
	var rn domain.RestockNotification
	err := row.Scan(&rn.ID, &rn.ProductID, &rn.CustomerID, &rn.CountryCode, &rn.Language, &rn.CreatedAt, &rn.UpdatedAt)
	return rn, err
}

func scanRestockNotifications(ctx context.Context, rows *sql.Rows, method string) ([]domain.RestockNotification, error) {
	defer rows.Close()

	var notifications []domain.RestockNotification
	for rows.Next() {
		rn, err := scanRestockNotification(rows)
		if err != nil {
			slog.ErrorContext(ctx, "[restockNotificationRepository] "+method, "scan", err)
			return nil, err
		}
		notifications = append(notifications, rn)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] "+method, "rowError", err)
		return nil, err
	}
	return notifications, nil
}

func scanRestockNotificationsWithCustomer(ctx context.Context, rows *sql.Rows, method string) ([]domain.RestockNotification, error) {
	defer rows.Close()

	var notifications []domain.RestockNotification
	for rows.Next() {
		var rn domain.RestockNotification
		var customerID sql.NullInt64
		var email, firstName, lastName sql.NullString
		if err := rows.Scan(&rn.ID, &rn.ProductID, &rn.CustomerID, &rn.CountryCode, &rn.Language,
			&rn.CreatedAt, &rn.UpdatedAt, &customerID, &email, &firstName, &lastName); err != nil {
			slog.ErrorContext(ctx, "[restockNotificationRepository] "+method, "scan", err)
			return nil, err
		}
		if customerID.Valid {
			rn.Customer = &domain.Customer{
				ID:        customerID.Int64,
				Email:     email.String,
				FirstName: firstName.String,
				LastName:  lastName.String,
			}
		}
		notifications = append(notifications, rn)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[restockNotificationRepository] "+method, "rowError", err)
		return nil, err
	}
	return notifications, nil
}
