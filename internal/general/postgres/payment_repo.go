package postgres

import (
	"context"
	"errors"
	"fmt"

	"ride-share/internal/apperr"
	"ride-share/internal/domain/payment"
	"ride-share/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo persists payments using pgx and plain SQL.
type PaymentRepo struct{}

func NewPaymentRepo() ports.PaymentRepository {
	return &PaymentRepo{}
}

const paymentColumns = `id, booking_id, external_ref, amount::float8, status::text, created_at, updated_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var status string
	if err := row.Scan(&p.ID, &p.BookingID, &p.ExternalRef, &p.Amount, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = payment.Status(status)
	return &p, nil
}

func (repo *PaymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (id, booking_id, external_ref, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.BookingID, p.ExternalRef, p.Amount, p.Status.String(),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", mapPgError(err))
	}
	return nil
}

func (repo *PaymentRepo) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	return repo.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (repo *PaymentRepo) GetForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	return repo.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (repo *PaymentRepo) GetByBooking(ctx context.Context, bookingID string) (*payment.Payment, error) {
	return repo.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
}

func (repo *PaymentRepo) getOne(ctx context.Context, query, arg string) (*payment.Payment, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(tx.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", mapPgError(err))
	}
	return p, nil
}

func (repo *PaymentRepo) UpdateStatus(ctx context.Context, p *payment.Payment) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`,
		p.ID, p.Status.String(), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment status: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment %s not found", p.ID)
	}
	return nil
}
