package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	uniqueViolation = "23505"
	// activeOrderIndex allows one STARTED, IN_PROGRESS or COMPENSATING saga per order
	activeOrderIndex = "uq_saga_transactions_active_order"
)

var _ domain.SagaRepository = (*PostgresSagaRepository)(nil)

// PostgresSagaRepository implements SagaRepository using PostgreSQL
type PostgresSagaRepository struct {
	db *sqlx.DB
}

// NewPostgresSagaRepository creates a new PostgresSagaRepository
func NewPostgresSagaRepository(db *sqlx.DB) *PostgresSagaRepository {
	return &PostgresSagaRepository{db: db}
}

// postgresSaga represents a saga in database
type postgresSaga struct {
	SagaID           string         `db:"saga_id"`
	OrderID          string         `db:"order_id"`
	Status           string         `db:"status"`
	CurrentStep      string         `db:"current_step"`
	CompensationStep sql.NullString `db:"compensation_step"`
	ErrorMessage     sql.NullString `db:"error_message"`
	RetryCount       int            `db:"retry_count"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CompletedAt      *time.Time     `db:"completed_at"`
	Version          int            `db:"version"`
}

const selectSagaColumns = `
	SELECT saga_id, order_id, status, current_step, compensation_step,
		   error_message, retry_count, created_at, updated_at, completed_at, version
	FROM saga_transactions`

// Save inserts a new saga or replaces the stored one if its version still matches
func (r *PostgresSagaRepository) Save(ctx context.Context, saga *domain.SagaTransaction) error {
	if saga.IsNew() {
		return r.insertSaga(ctx, saga)
	}
	return r.updateSaga(ctx, saga)
}

func (r *PostgresSagaRepository) insertSaga(ctx context.Context, saga *domain.SagaTransaction) error {
	query := `
		INSERT INTO saga_transactions (
			saga_id, order_id, status, current_step, compensation_step,
			error_message, retry_count, created_at, updated_at, completed_at, version
		) VALUES (
			:saga_id, :order_id, :status, :current_step, :compensation_step,
			:error_message, :retry_count, :created_at, :updated_at, :completed_at, :version
		)
		ON CONFLICT (saga_id) DO NOTHING`

	pgSaga := r.toPostgres(saga)
	pgSaga.Version = models.NewVersion().Value

	result, err := r.db.NamedExecContext(ctx, query, pgSaga)
	if err != nil {
		return insertSagaError(err, saga)
	}

	if err := expectOneRow(result, saga.ID); err != nil {
		return err
	}

	saga.Version = models.NewVersion()
	return nil
}

func (r *PostgresSagaRepository) updateSaga(ctx context.Context, saga *domain.SagaTransaction) error {
	query := `
		UPDATE saga_transactions
		SET status = :status, current_step = :current_step, compensation_step = :compensation_step,
			error_message = :error_message, retry_count = :retry_count, updated_at = :updated_at,
			completed_at = :completed_at, version = :version
		WHERE saga_id = :saga_id AND version = :old_version`

	pgSaga := r.toPostgres(saga)
	next := saga.Version.Next()

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"saga_id":           pgSaga.SagaID,
		"status":            pgSaga.Status,
		"current_step":      pgSaga.CurrentStep,
		"compensation_step": pgSaga.CompensationStep,
		"error_message":     pgSaga.ErrorMessage,
		"retry_count":       pgSaga.RetryCount,
		"updated_at":        pgSaga.UpdatedAt,
		"completed_at":      pgSaga.CompletedAt,
		"version":           next.Value,
		"old_version":       saga.Version.Value, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update saga")
	}

	if err := expectOneRow(result, saga.ID); err != nil {
		return err
	}

	saga.Version = next
	return nil
}

// insertSagaError maps a violation of the active order index to
// ErrActiveSagaExists
func insertSagaError(err error, saga *domain.SagaTransaction) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == activeOrderIndex {
		return errors.Wrapf(domain.ErrActiveSagaExists, "order %s", saga.OrderID)
	}
	return errors.Wrap(err, "failed to insert saga")
}

func expectOneRow(result sql.Result, id models.ID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return errors.Wrapf(domain.ErrVersionConflict, "record %s", id)
	}
	return nil
}

// FindByID finds a saga by ID
func (r *PostgresSagaRepository) FindByID(ctx context.Context, id models.ID) (*domain.SagaTransaction, error) {
	query := selectSagaColumns + ` WHERE saga_id = $1`

	var pgSaga postgresSaga
	err := r.db.GetContext(ctx, &pgSaga, query, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrSagaNotFound, "saga %s", id)
		}
		return nil, errors.Wrap(err, "failed to find saga")
	}

	return r.toDomain(&pgSaga)
}

// FindByStatusBefore finds sagas in status created before the cutoff, oldest first
func (r *PostgresSagaRepository) FindByStatusBefore(ctx context.Context, status domain.SagaStatus, before time.Time) ([]*domain.SagaTransaction, error) {
	query := selectSagaColumns + `
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC`

	return r.selectSagas(ctx, query, string(status), before)
}

// FindByOrderID finds every saga for an order, oldest first
func (r *PostgresSagaRepository) FindByOrderID(ctx context.Context, orderID models.ID) ([]*domain.SagaTransaction, error) {
	query := selectSagaColumns + `
		WHERE order_id = $1
		ORDER BY created_at ASC`

	return r.selectSagas(ctx, query, orderID.String())
}

// List lists sagas newest first
func (r *PostgresSagaRepository) List(ctx context.Context, filter domain.SagaFilter) ([]*domain.SagaTransaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}

	if filter.Status != "" {
		query := selectSagaColumns + `
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2`
		return r.selectSagas(ctx, query, string(filter.Status), limit)
	}

	query := selectSagaColumns + `
		ORDER BY created_at DESC
		LIMIT $1`
	return r.selectSagas(ctx, query, limit)
}

func (r *PostgresSagaRepository) selectSagas(ctx context.Context, query string, args ...interface{}) ([]*domain.SagaTransaction, error) {
	var pgSagas []postgresSaga
	if err := r.db.SelectContext(ctx, &pgSagas, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to select sagas")
	}

	sagas := make([]*domain.SagaTransaction, len(pgSagas))
	for i := range pgSagas {
		saga, err := r.toDomain(&pgSagas[i])
		if err != nil {
			return nil, err
		}
		sagas[i] = saga
	}

	return sagas, nil
}

// toPostgres converts domain saga to postgres model
func (r *PostgresSagaRepository) toPostgres(saga *domain.SagaTransaction) *postgresSaga {
	return &postgresSaga{
		SagaID:           saga.ID.String(),
		OrderID:          saga.OrderID.String(),
		Status:           string(saga.Status),
		CurrentStep:      string(saga.CurrentStep),
		CompensationStep: nullString(string(saga.CompensationStep)),
		ErrorMessage:     nullString(saga.ErrorMessage),
		RetryCount:       saga.RetryCount,
		CreatedAt:        saga.Timestamps.CreatedAt,
		UpdatedAt:        saga.Timestamps.UpdatedAt,
		CompletedAt:      saga.CompletedAt,
		Version:          saga.Version.Value,
	}
}

// toDomain converts postgres model to domain saga
func (r *PostgresSagaRepository) toDomain(pgSaga *postgresSaga) (*domain.SagaTransaction, error) {
	status, err := domain.ParseSagaStatus(pgSaga.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "saga %s", pgSaga.SagaID)
	}

	step := domain.SagaStep(pgSaga.CurrentStep)
	if !step.IsValid() {
		return nil, errors.Errorf("saga %s has unknown step %q", pgSaga.SagaID, pgSaga.CurrentStep)
	}

	return &domain.SagaTransaction{
		ID:               models.ID(pgSaga.SagaID),
		OrderID:          models.ID(pgSaga.OrderID),
		Status:           status,
		CurrentStep:      step,
		CompensationStep: domain.SagaStep(pgSaga.CompensationStep.String),
		ErrorMessage:     pgSaga.ErrorMessage.String,
		RetryCount:       pgSaga.RetryCount,
		Timestamps: models.Timestamps{
			CreatedAt: pgSaga.CreatedAt,
			UpdatedAt: pgSaga.UpdatedAt,
		},
		CompletedAt: pgSaga.CompletedAt,
		Version:     models.Version{Value: pgSaga.Version},
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
