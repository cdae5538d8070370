package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expense-platform/internal/domain"
)

// ExpenseRepository define el contrato de persistencia para gastos.
type ExpenseRepository interface {
	Create(ctx context.Context, expense domain.Expense) error
	GetByID(ctx context.Context, id string) (domain.Expense, error)
	ListByOwner(ctx context.Context, username string) ([]domain.Expense, error)
	ListAll(ctx context.Context) ([]domain.Expense, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PgExpenseRepository implementa ExpenseRepository usando pgxpool.
type PgExpenseRepository struct {
	pool *pgxpool.Pool
}

func NewPgExpenseRepository(pool *pgxpool.Pool) *PgExpenseRepository {
	return &PgExpenseRepository{pool: pool}
}

func (r *PgExpenseRepository) Create(ctx context.Context, expense domain.Expense) error {
	const query = `
		INSERT INTO expenses (id, owner_username, amount, currency, expense_date, vendor, description, receipt_path, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		expense.ID,
		expense.OwnerUsername,
		expense.Amount,
		expense.Currency,
		expense.ExpenseDate,
		expense.Vendor,
		expense.Description,
		expense.ReceiptPath,
		expense.Status,
		expense.CreatedAt,
	)
	return err
}

func (r *PgExpenseRepository) GetByID(ctx context.Context, id string) (domain.Expense, error) {
	const query = `
		SELECT id, owner_username, amount, currency, expense_date, vendor, description, receipt_path, status, created_at
		FROM expenses
		WHERE id = $1
	`
	var e domain.Expense
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.OwnerUsername,
		&e.Amount,
		&e.Currency,
		&e.ExpenseDate,
		&e.Vendor,
		&e.Description,
		&e.ReceiptPath,
		&e.Status,
		&e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Expense{}, err
	}
	return e, err
}

func (r *PgExpenseRepository) ListByOwner(ctx context.Context, username string) ([]domain.Expense, error) {
	const query = `
		SELECT id, owner_username, amount, currency, expense_date, vendor, description, receipt_path, status, created_at
		FROM expenses
		WHERE owner_username = $1
		ORDER BY expense_date DESC, created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (r *PgExpenseRepository) ListAll(ctx context.Context) ([]domain.Expense, error) {
	const query = `
		SELECT id, owner_username, amount, currency, expense_date, vendor, description, receipt_path, status, created_at
		FROM expenses
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (r *PgExpenseRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
		UPDATE expenses
		SET status = $2
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(
			&e.ID,
			&e.OwnerUsername,
			&e.Amount,
			&e.Currency,
			&e.ExpenseDate,
			&e.Vendor,
			&e.Description,
			&e.ReceiptPath,
			&e.Status,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
