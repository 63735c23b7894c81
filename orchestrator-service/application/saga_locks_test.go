package application

import (
	"sync"
	"testing"

	"github.com/draftea/order-saga/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestSagaLocks(t *testing.T) {
	locks := newSagaLocks()
	id := models.GenerateUUID()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestSagaLocks_IndependentSagas(t *testing.T) {
	locks := newSagaLocks()

	unlockFirst := locks.Lock(models.GenerateUUID())
	unlockSecond := locks.Lock(models.GenerateUUID())
	assert.Equal(t, 2, locks.size())

	unlockFirst()
	unlockSecond()
	assert.Equal(t, 0, locks.size())
}
