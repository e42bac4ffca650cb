package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fkhayef/splitclaim/internal/expense/settle"
)

const (
	expenseID     = "5b0e7f1c-8d55-4d0f-9d7a-0c9f3d9b1a11"
	participantID = "c2a1a3a4-1b2c-4d5e-8f90-123456789abc"

	authQuery   = `SELECT secret_hash FROM expenses WHERE id = \$1 AND deleted_at IS NULL`
	lockQuery   = authQuery + ` FOR UPDATE`
	sumQuery    = `SELECT COALESCE\(SUM\(amount\), 0\) FROM participants`
	countQuery  = `SELECT COUNT\(\*\) FROM participants`
	insertQuery = `INSERT INTO participants \(id, expense_id, name, amount, is_host, is_paid, payment_method_metadata\)`
	updateQuery = `UPDATE participants SET name = \$1`
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func secretHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testSecret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func hashRow(t *testing.T) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"secret_hash"}).AddRow(secretHash(t))
}

func TestRepository_GetExpense(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, title, amount, currency, settle_mode, settle_metadata, payment_methods, created_at, secret_hash FROM expenses`).
		WithArgs(expenseID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "amount", "currency", "settle_mode", "settle_metadata", "payment_methods", "created_at", "secret_hash",
		}).AddRow(
			expenseID, "Dinner", "100.00", "SGD", "FRIEND", []byte(friendMD),
			[]byte(`[{"label":"PayNow","type":"qr","imageKey":"qr/paynow.png"}]`), created, secretHash(t),
		))

	e, err := repo.GetExpense(context.Background(), expenseID, testSecret)
	require.NoError(t, err)

	assert.Equal(t, expenseID, e.ID)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, settle.ModeFriend, e.SettleMode)
	assert.JSONEq(t, friendMD, string(e.SettleMetadata))
	require.Len(t, e.PaymentMethods, 1)
	assert.Equal(t, "qr/paynow.png", e.PaymentMethods[0].ImageKey)
	assert.Equal(t, created, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetExpense_AccessErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, title`).WithArgs(expenseID).WillReturnError(sql.ErrNoRows)
	_, err := repo.GetExpense(context.Background(), expenseID, testSecret)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`SELECT id, title`).WithArgs(expenseID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "amount", "currency", "settle_mode", "settle_metadata", "payment_methods", "created_at", "secret_hash",
		}).AddRow(expenseID, "", "1.00", "SGD", "FRIEND", []byte(friendMD), []byte(`[]`), time.Now(), secretHash(t)))
	_, err = repo.GetExpense(context.Background(), expenseID, "guess")
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListParticipants(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(authQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
	mock.ExpectQuery(`SELECT id, expense_id, name, amount, is_host, is_paid, payment_method_metadata, created_at, updated_at FROM participants WHERE expense_id = \$1 AND deleted_at IS NULL ORDER BY created_at, id`).
		WithArgs(expenseID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "expense_id", "name", "amount", "is_host", "is_paid", "payment_method_metadata", "created_at", "updated_at",
		}).
			AddRow("h1", expenseID, "Dana", "0.00", true, true, nil, now, now).
			AddRow(participantID, expenseID, "Alice", "30.00", false, true, []byte(`{"label":"PayNow","type":"qr"}`), now, now))

	ps, err := repo.ListParticipants(context.Background(), expenseID, testSecret)
	require.NoError(t, err)
	require.Len(t, ps, 2)

	assert.True(t, ps[0].IsHost)
	assert.Nil(t, ps[0].PaymentMethodMetadata)
	assert.Equal(t, "Alice", ps[1].Name)
	assert.Equal(t, "30.00", settle.FormatAmount(ps[1].Amount))
	require.NotNil(t, ps[1].PaymentMethodMetadata)
	assert.Equal(t, "PayNow", ps[1].PaymentMethodMetadata.Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListParticipants_WrongSecret(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(authQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))

	_, err := repo.ListParticipants(context.Background(), expenseID, "guess")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertParticipant(t *testing.T) {
	paidAt := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	pm := &PaymentMethodMetadata{Label: "PayNow", Type: "qr", PaidAt: &paidAt}
	pmJSON, err := json.Marshal(pm)
	require.NoError(t, err)

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
	mock.ExpectQuery(sumQuery).WithArgs(expenseID, "").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("60.00"))
	mock.ExpectExec(insertQuery).
		WithArgs(participantID, expenseID, "Cara", sqlmock.AnyArg(), true, string(pmJSON)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.InsertParticipant(context.Background(), expenseID, testSecret, participantID, ParticipantFields{
		Name:                  "Cara",
		Amount:                decimal.RequireFromString("40"),
		IsPaid:                true,
		PaymentMethodMetadata: pm,
	}, Guard{Budget: decimal.NewNullDecimal(decimal.NewFromInt(100))})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertParticipant_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		guard   Guard
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:  "over budget",
			guard: Guard{Budget: decimal.NewNullDecimal(decimal.NewFromInt(100))},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(sumQuery).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("90.00"))
			},
			wantErr: ErrBudgetExceeded,
		},
		{
			name:  "roster full",
			guard: Guard{Capacity: 2},
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(countQuery).WithArgs(expenseID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
			},
			wantErr: ErrRosterFull,
		},
		{
			name: "duplicate name",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(insertQuery).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
			},
			wantErr: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectQuery(lockQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
			tt.expect(mock)
			mock.ExpectRollback()

			err := repo.InsertParticipant(context.Background(), expenseID, testSecret, participantID, ParticipantFields{
				Name:   "Cara",
				Amount: decimal.RequireFromString("20"),
			}, tt.guard)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_InsertParticipant_WrongSecret(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
	mock.ExpectRollback()

	err := repo.InsertParticipant(context.Background(), expenseID, "guess", participantID, ParticipantFields{Name: "Cara"}, Guard{})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateParticipant(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
	mock.ExpectQuery(sumQuery).WithArgs(expenseID, participantID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("60.00"))
	mock.ExpectExec(updateQuery).
		WithArgs("Alice", sqlmock.AnyArg(), false, nil, participantID, expenseID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Capacity is ignored for edits, so no COUNT query runs.
	err := repo.UpdateParticipant(context.Background(), expenseID, testSecret, participantID, ParticipantFields{
		Name:   "Alice",
		Amount: decimal.RequireFromString("40"),
	}, Guard{Budget: decimal.NewNullDecimal(decimal.NewFromInt(100)), Capacity: 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateParticipant_NoMatchingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(expenseID).WillReturnRows(hashRow(t))
	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateParticipant(context.Background(), expenseID, testSecret, participantID, ParticipantFields{Name: "Alice"}, Guard{})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateExpense(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

	e := &Expense{
		ID:             expenseID,
		Title:          "Dinner",
		Amount:         decimal.NewFromInt(90),
		Currency:       "SGD",
		SettleMode:     settle.ModeHost,
		SettleMetadata: json.RawMessage(hostMD),
	}
	participants := []*Participant{
		{ID: "h1", Name: "Dana", Amount: decimal.NewFromInt(45), IsHost: true, IsPaid: true},
		{ID: "m1", Name: "Carl", Amount: decimal.NewFromInt(45)},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO expenses`).
		WithArgs(expenseID, "Dinner", sqlmock.AnyArg(), "SGD", "HOST", hostMD, "[]", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery(`INSERT INTO participants`).
		WithArgs("h1", expenseID, "Dana", sqlmock.AnyArg(), true, true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
	mock.ExpectQuery(`INSERT INTO participants`).
		WithArgs("m1", expenseID, "Carl", sqlmock.AnyArg(), false, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateExpense(context.Background(), e, []byte("hash"), participants))
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, expenseID, participants[1].ExpenseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateExpense_RollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO expenses`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.CreateExpense(context.Background(), &Expense{ID: expenseID, SettleMode: settle.ModeFriend}, []byte("hash"), nil)
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
