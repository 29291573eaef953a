package usecase

import "time"

// SetNow is exported for testing timestamp invariants
func (uc *ContextUseCase) SetNow(f func() time.Time) {
	uc.now = f
}
