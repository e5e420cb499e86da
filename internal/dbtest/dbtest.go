// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"admissions-portal/internal/model"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated database stored under t.TempDir().
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// University inserts an active university with the given fee.
func University(t testing.TB, db *gorm.DB, fee string) *model.University {
	t.Helper()

	u := &model.University{
		ID:             uuid.NewString(),
		Name:           "Indian Institute of Technology Delhi",
		Code:           "IITD-" + uuid.NewString()[:8],
		Country:        "India",
		ApplicationFee: decimal.RequireFromString(fee),
		IsActive:       true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create university: %v", err)
	}
	return u
}

// Application inserts an application in the given status.
func Application(t testing.TB, db *gorm.DB, studentID, universityID string, status model.ApplicationStatus) *model.Application {
	t.Helper()

	app := &model.Application{
		ID:                   uuid.NewString(),
		ApplicationNumber:    "APP-TEST-" + uuid.NewString()[:8],
		StudentID:            studentID,
		UniversityID:         universityID,
		ProgramName:          "Computer Science",
		Status:               status,
		AIVerificationStatus: model.VerificationPending,
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app
}

// Documents attaches n documents of a seeded type to the application.
func Documents(t testing.TB, db *gorm.DB, app *model.Application, n int) {
	t.Helper()

	dt := &model.DocumentType{
		ID:          uuid.NewString(),
		Name:        "Aadhar Card",
		Code:        "AADHAR-" + uuid.NewString()[:8],
		MaxFileSize: 5242880,
	}
	if err := db.Create(dt).Error; err != nil {
		t.Fatalf("create document type: %v", err)
	}

	for i := 0; i < n; i++ {
		appID := app.ID
		doc := &model.Document{
			ID:             uuid.NewString(),
			UserID:         app.StudentID,
			ApplicationID:  &appID,
			DocumentTypeID: dt.ID,
			FileName:       "scan.pdf",
			FileSize:       1024,
			MimeType:       "application/pdf",
			Status:         model.DocumentPending,
		}
		if err := db.Omit("DocumentType").Create(doc).Error; err != nil {
			t.Fatalf("create document: %v", err)
		}
	}
}
