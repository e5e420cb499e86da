package model

import (
	"time"

	"gorm.io/datatypes"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

type DocumentType struct {
	ID               string    `gorm:"primaryKey;size:36;not null" json:"id"`
	Name             string    `gorm:"size:128;not null" json:"name"`
	Code             string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	IsRequired       bool      `gorm:"not null;default:false" json:"is_required"`
	MaxFileSize      int64     `gorm:"not null" json:"max_file_size"`
	AllowedMimeTypes []string  `gorm:"serializer:json" json:"allowed_mime_types"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Allows reports whether a file of the given MIME type and size may be attached under this type.
func (t *DocumentType) Allows(mimeType string, size int64) bool {
	if size <= 0 || (t.MaxFileSize > 0 && size > t.MaxFileSize) {
		return false
	}
	if len(t.AllowedMimeTypes) == 0 {
		return true
	}
	for _, m := range t.AllowedMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// Document records an uploaded file's metadata. The bytes live in external storage.
type Document struct {
	ID             string         `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID         string         `gorm:"size:64;index;not null" json:"user_id"`
	ApplicationID  *string        `gorm:"size:36;index" json:"application_id,omitempty"`
	DocumentTypeID string         `gorm:"size:36;index;not null" json:"document_type_id"`
	DocumentType   *DocumentType  `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
	FileName       string         `gorm:"size:255;not null" json:"file_name"`
	FileSize       int64          `gorm:"not null" json:"file_size"`
	MimeType       string         `gorm:"size:128;not null" json:"mime_type"`
	StorageKey     string         `gorm:"size:512" json:"storage_key,omitempty"`
	Status         DocumentStatus `gorm:"size:16;index;not null;default:pending" json:"status"`
	ReviewNotes    string         `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedBy     string         `gorm:"size:64" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`

	AIVerificationResult datatypes.JSONMap `json:"ai_verification_result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TypeCode returns the code of the loaded document type, or an empty string.
func (d *Document) TypeCode() string {
	if d.DocumentType == nil {
		return ""
	}
	return d.DocumentType.Code
}
