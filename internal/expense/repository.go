package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fkhayef/splitclaim/internal/database"
	"github.com/fkhayef/splitclaim/internal/expense/settle"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// Repository handles expense and participant persistence. Every call checks
// the expense secret against the stored bcrypt hash first.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateExpense inserts the expense and its initial participant rows (the
// host's own row, plus pre-assigned members in HOST mode) in one transaction.
func (r *Repository) CreateExpense(ctx context.Context, e *Expense, secretHash []byte, participants []*Participant) error {
	methods := []byte("[]")
	if e.PaymentMethods != nil {
		var err error
		if methods, err = json.Marshal(e.PaymentMethods); err != nil {
			return fmt.Errorf("failed to encode payment methods: %w", err)
		}
	}

	return database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		query := `
			INSERT INTO expenses (id, title, amount, currency, settle_mode, settle_metadata, payment_methods, secret_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		if err := tx.QueryRowContext(ctx, query,
			e.ID,
			e.Title,
			e.Amount,
			e.Currency,
			string(e.SettleMode),
			string(e.SettleMetadata),
			string(methods),
			string(secretHash),
		).Scan(&e.CreatedAt); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		query = `
			INSERT INTO participants (id, expense_id, name, amount, is_host, is_paid)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		for _, p := range participants {
			p.ExpenseID = e.ID
			if err := tx.QueryRowContext(ctx, query, p.ID, e.ID, p.Name, p.Amount, p.IsHost, p.IsPaid).
				Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
				return mapWriteError("failed to create participant", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves a live expense
func (r *Repository) GetExpense(ctx context.Context, id, secret string) (*Expense, error) {
	query := `
		SELECT id, title, amount, currency, settle_mode, settle_metadata, payment_methods, created_at, secret_hash
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
	`

	e := &Expense{}
	var (
		mode     string
		metadata []byte
		methods  []byte
		hash     string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Title,
		&e.Amount,
		&e.Currency,
		&mode,
		&metadata,
		&methods,
		&e.CreatedAt,
		&hash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := checkSecret(hash, secret); err != nil {
		return nil, err
	}

	e.SettleMode = settle.Mode(mode)
	e.SettleMetadata = metadata
	if len(methods) > 0 {
		if err := json.Unmarshal(methods, &e.PaymentMethods); err != nil {
			return nil, fmt.Errorf("failed to decode payment methods: %w", err)
		}
	}
	return e, nil
}

// ListParticipants returns the live participants of an expense in creation
// order
func (r *Repository) ListParticipants(ctx context.Context, expenseID, secret string) ([]*Participant, error) {
	if err := r.authorize(ctx, r.db, expenseID, secret, false); err != nil {
		return nil, err
	}

	query := `
		SELECT id, expense_id, name, amount, is_host, is_paid, payment_method_metadata, created_at, updated_at
		FROM participants
		WHERE expense_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		var pm []byte
		if err := rows.Scan(
			&p.ID,
			&p.ExpenseID,
			&p.Name,
			&p.Amount,
			&p.IsHost,
			&p.IsPaid,
			&pm,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if len(pm) > 0 {
			p.PaymentMethodMetadata = &PaymentMethodMetadata{}
			if err := json.Unmarshal(pm, p.PaymentMethodMetadata); err != nil {
				return nil, fmt.Errorf("failed to decode payment method metadata: %w", err)
			}
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return participants, nil
}

// InsertParticipant adds a non-host participant under guard g.
func (r *Repository) InsertParticipant(ctx context.Context, expenseID, secret, id string, f ParticipantFields, g Guard) error {
	pm, err := jsonValue(f.PaymentMethodMetadata)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := r.authorize(ctx, tx, expenseID, secret, true); err != nil {
			return err
		}
		if err := checkGuard(ctx, tx, expenseID, "", f.Amount, g); err != nil {
			return err
		}

		query := `
			INSERT INTO participants (id, expense_id, name, amount, is_host, is_paid, payment_method_metadata)
			VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, id, expenseID, f.Name, f.Amount, f.IsPaid, pm); err != nil {
			return mapWriteError("failed to insert participant", err)
		}
		return nil
	})
}

// UpdateParticipant rewrites one live participant of the expense under guard
// g. A row outside that scope is ErrParticipantNotFound.
func (r *Repository) UpdateParticipant(ctx context.Context, expenseID, secret, participantID string, f ParticipantFields, g Guard) error {
	pm, err := jsonValue(f.PaymentMethodMetadata)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := r.authorize(ctx, tx, expenseID, secret, true); err != nil {
			return err
		}
		// Capacity only limits new rows.
		if err := checkGuard(ctx, tx, expenseID, participantID, f.Amount, Guard{Budget: g.Budget}); err != nil {
			return err
		}

		query := `
			UPDATE participants
			SET name = $1, amount = $2, is_paid = $3, payment_method_metadata = $4, updated_at = NOW()
			WHERE id = $5 AND expense_id = $6 AND deleted_at IS NULL
		`
		res, err := tx.ExecContext(ctx, query, f.Name, f.Amount, f.IsPaid, pm, participantID, expenseID)
		if err != nil {
			return mapWriteError("failed to update participant", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update participant: %w", err)
		}
		if n == 0 {
			return ErrParticipantNotFound
		}
		return nil
	})
}

// authorize checks secret against the live expense. With lock set the
// expense row stays locked until the transaction ends, serializing writers.
func (r *Repository) authorize(ctx context.Context, q database.DBTX, expenseID, secret string, lock bool) error {
	query := `SELECT secret_hash FROM expenses WHERE id = $1 AND deleted_at IS NULL`
	if lock {
		query += ` FOR UPDATE`
	}

	var hash string
	if err := q.QueryRowContext(ctx, query, expenseID).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to authorize: %w", err)
	}
	return checkSecret(hash, secret)
}

func checkSecret(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrAccessDenied
	}
	return nil
}

// checkGuard enforces g against the rows other than excludeID.
func checkGuard(ctx context.Context, tx database.DBTX, expenseID, excludeID string, amount decimal.Decimal, g Guard) error {
	if g.Budget.Valid {
		query := `
			SELECT COALESCE(SUM(amount), 0)
			FROM participants
			WHERE expense_id = $1 AND NOT is_host AND deleted_at IS NULL AND ($2::text = '' OR id::text <> $2::text)
		`
		var claimed decimal.Decimal
		if err := tx.QueryRowContext(ctx, query, expenseID, excludeID).Scan(&claimed); err != nil {
			return fmt.Errorf("failed to sum claims: %w", err)
		}
		if claimed.Add(amount).GreaterThan(g.Budget.Decimal) {
			return ErrBudgetExceeded
		}
	}

	if g.Capacity > 0 {
		query := `
			SELECT COUNT(*)
			FROM participants
			WHERE expense_id = $1 AND NOT is_host AND deleted_at IS NULL
		`
		var count int
		if err := tx.QueryRowContext(ctx, query, expenseID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if count >= g.Capacity {
			return ErrRosterFull
		}
	}
	return nil
}

func mapWriteError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateName
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// jsonValue encodes v for a nullable JSONB column. lib/pq sends []byte as
// bytea, so the text form is passed.
func jsonValue(v *PaymentMethodMetadata) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment method metadata: %w", err)
	}
	return string(b), nil
}
