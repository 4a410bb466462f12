// internal/quote/repository_test.go
package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
)

func lifeQuote() *Quote {
	return &Quote{
		ID:      "quote-123",
		Product: ProductLife,
		Contact: Contact{
			FullName: "Maria Silva",
			Document: "123.456.789-00",
			Email:    "maria@example.com",
			Phone:    "(21) 99999-0000",
		},
		Seller: "Felipe",
		Status: StatusPending,
		Details: map[string]interface{}{
			"birth_date":     "1990-05-20",
			"occupation":     "Engenheira",
			"monthly_income": 8500.0,
			"smoker":         false,
			"coverage_value": 500000.0,
			"beneficiaries":  2.0,
		},
		CreatedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}
}

func TestRepository_Insert_LifeQuote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewCatalog(testSellers)
	spec, err := catalog.Spec("life")
	require.NoError(t, err)

	q := lifeQuote()

	mock.ExpectExec(`INSERT INTO life_quotes`).
		WithArgs(
			"quote-123",
			"Maria Silva",
			"123.456.789-00",
			"maria@example.com",
			"(21) 99999-0000",
			"Felipe",
			"pendente",
			nil, // attachment_path
			q.CreatedAt,
			"1990-05-20",
			"Engenheira",
			8500.0,
			false,
			500000.0,
			2.0,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewRepository(db, logger.NewTestLogger(t))
	err = repo.Insert(context.Background(), spec, q)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_IncludesAddressColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewCatalog(testSellers)
	spec, err := catalog.Spec("auto")
	require.NoError(t, err)

	q := &Quote{
		ID:      "quote-456",
		Product: ProductAuto,
		Contact: Contact{
			FullName: "Maria Silva",
			Document: "123.456.789-00",
			Email:    "maria@example.com",
			Phone:    "(21) 99999-0000",
		},
		Seller: "Felipe",
		Status: StatusPending,
		Address: &Address{
			CEP:   "01310-100",
			City:  "São Paulo",
			State: "SP",
		},
		Details: map[string]interface{}{
			"vehicle_brand": "Fiat",
			"vehicle_model": "Argo",
			"vehicle_year":  2023.0,
		},
		CreatedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO auto_quotes`).
		WithArgs(
			"quote-456", "Maria Silva", "123.456.789-00", "maria@example.com",
			"(21) 99999-0000", "Felipe", "pendente", nil, q.CreatedAt,
			// address block; unset optionals go in as NULL
			"01310-100", nil, nil, nil, nil, "São Paulo", "SP",
			// detail columns in spec order
			"Fiat", "Argo", 2023.0, nil, nil, nil, nil, nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewRepository(db, logger.NewTestLogger(t))
	err = repo.Insert(context.Background(), spec, q)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_HealthWithDependentsUsesTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewCatalog(testSellers)
	spec, err := catalog.Spec("health")
	require.NoError(t, err)

	q := &Quote{
		ID:      "quote-789",
		Product: ProductHealth,
		Contact: Contact{
			FullName: "Maria Silva",
			Document: "123.456.789-00",
			Email:    "maria@example.com",
			Phone:    "(21) 99999-0000",
		},
		Seller: "Carla",
		Status: StatusPending,
		Details: map[string]interface{}{
			"plan_type":  "familiar",
			"birth_date": "1985-03-01",
		},
		Dependents: []Dependent{
			{Name: "João Silva", Document: "987.654.321-00", BirthDate: "2015-06-10", Age: 11},
		},
		CreatedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO health_quotes`).
		WithArgs(
			"quote-789", "Maria Silva", "123.456.789-00", "maria@example.com",
			"(21) 99999-0000", "Carla", "pendente", nil, q.CreatedAt,
			"familiar", "1985-03-01", nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO health_quotes_dependents`).
		WithArgs("quote-789", "João Silva", "987.654.321-00", "2015-06-10", 11).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewRepository(db, logger.NewTestLogger(t))
	err = repo.Insert(context.Background(), spec, q)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_DependentFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewCatalog(testSellers)
	spec, err := catalog.Spec("health")
	require.NoError(t, err)

	q := &Quote{
		ID:      "quote-790",
		Product: ProductHealth,
		Contact: Contact{FullName: "Maria Silva", Document: "123.456.789-00", Email: "maria@example.com", Phone: "(21) 99999-0000"},
		Seller:  "Carla",
		Status:  StatusPending,
		Details: map[string]interface{}{"plan_type": "familiar", "birth_date": "1985-03-01"},
		Dependents: []Dependent{
			{Name: "João Silva", Document: "987.654.321-00", BirthDate: "2015-06-10", Age: 11},
		},
		CreatedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO health_quotes`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO health_quotes_dependents`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewRepository(db, logger.NewTestLogger(t))
	err = repo.Insert(context.Background(), spec, q)

	require.Error(t, err)
	stdErr, ok := err.(*appErrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	catalog := NewCatalog(testSellers)
	spec, err := catalog.Spec("life")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO life_quotes`).
		WillReturnError(errors.New("connection refused"))

	repo := NewRepository(db, logger.NewTestLogger(t))
	err = repo.Insert(context.Background(), spec, lifeQuote())

	require.Error(t, err)
	stdErr, ok := err.(*appErrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
