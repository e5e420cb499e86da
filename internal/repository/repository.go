package repository

import (
	"admissions-portal/internal/apperr"
	"errors"

	"gorm.io/gorm"
)

// Page bounds a list query. Zero values fall back to the first page of 20.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// conn returns tx when a caller runs inside a transaction, otherwise the base handle.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, what+" not found", err)
	}
	return err
}

// IsDuplicateKey reports a unique-constraint violation. The db must be opened with TranslateError.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
