package repository

import (
	"gorm.io/gorm"
)

// Repository groups the database-backed repositories. Price repositories are
// built separately because the CLI can run without a database.
type Repository struct {
	JobRepo         JobRepository
	BacktestRunRepo BacktestRunRepository
	UnitOfWork      UnitOfWork
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		JobRepo:         NewJobRepository(db),
		BacktestRunRepo: NewBacktestRunRepository(db),
		UnitOfWork:      NewUnitOfWork(db),
	}
}
