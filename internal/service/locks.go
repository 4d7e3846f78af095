package service

import (
	"sync"

	"github.com/google/uuid"
)

// PeriodLocks serializes entry edits and aggregation passes that touch the
// same (employee, period). Distinct keys proceed in parallel.
type PeriodLocks struct {
	locks sync.Map // lockKey -> *sync.Mutex
}

type lockKey struct {
	employeeID uuid.UUID
	period     string
}

func NewPeriodLocks() *PeriodLocks {
	return &PeriodLocks{}
}

// Lock acquires the mutex for the key and returns its unlock func.
func (p *PeriodLocks) Lock(employeeID uuid.UUID, period string) func() {
	v, _ := p.locks.LoadOrStore(lockKey{employeeID: employeeID, period: period}, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
