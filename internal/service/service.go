package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/repository"
	"context"
	"time"
)

// maxNumberAttempts bounds the retries for human-readable numbers such as APP-202501-004211.
const maxNumberAttempts = 10

// allocateNumber draws numbers from gen until one is free and create succeeds.
// A unique-key violation from create counts as a collision and is retried.
func allocateNumber(
	ctx context.Context,
	now time.Time,
	gen func(time.Time) string,
	exists func(context.Context, string) (bool, error),
	create func(number string) error,
) error {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := gen(now)

		taken, err := exists(ctx, number)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		err = create(number)
		if err == nil {
			return nil
		}
		if !repository.IsDuplicateKey(err) {
			return err
		}
	}

	return apperr.Newf(apperr.KindConflict, "could not allocate a unique number after %d attempts", maxNumberAttempts)
}

// canRead allows admins and the owning student.
func canRead(actor lifecycle.Actor, ownerID string) error {
	if actor.IsAdmin() || actor.Owns(ownerID) {
		return nil
	}
	return apperr.Forbidden("access denied")
}

func requireAdmin(actor lifecycle.Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}
