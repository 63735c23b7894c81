package infrastructure

import (
	"testing"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestInsertSagaError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		activeExists bool
	}{
		{
			name:         "active order index",
			err:          &pq.Error{Code: uniqueViolation, Constraint: activeOrderIndex},
			activeExists: true,
		},
		{
			name: "other unique index",
			err:  &pq.Error{Code: uniqueViolation, Constraint: "saga_transactions_pkey"},
		},
		{
			name: "connection error",
			err:  errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saga := newTestSaga(t, baseTime)

			err := insertSagaError(tt.err, saga)

			assert.Equal(t, tt.activeExists, errors.Is(err, domain.ErrActiveSagaExists))
			if !tt.activeExists {
				assert.Contains(t, err.Error(), "failed to insert saga")
			}
		})
	}
}
