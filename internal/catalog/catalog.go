// Package catalog holds the reference data loaded by the seed command.
package catalog

import (
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxDocumentSize = 5 << 20

var uploadMimeTypes = []string{"application/pdf", "image/jpeg", "image/png"}

type universitySeed struct {
	name, code, description, location, website string
	fee                                        int64
}

var universitySeeds = []universitySeed{
	{"Indian Institute of Technology Delhi", "IITD", "Premier engineering and technology institute", "New Delhi", "https://www.iitd.ac.in", 2000},
	{"Indian Institute of Technology Bombay", "IITB", "Leading institute for engineering and technology", "Mumbai", "https://www.iitb.ac.in", 2000},
	{"Indian Institute of Technology Madras", "IITM", "Top-ranked engineering institute", "Chennai", "https://www.iitm.ac.in", 2000},
	{"Indian Institute of Technology Kanpur", "IITK", "Premier institute for engineering education", "Kanpur", "https://www.iitk.ac.in", 2000},
	{"Indian Institute of Technology Kharagpur", "IITKGP", "Oldest IIT, excellence in engineering", "Kharagpur", "https://www.iitkgp.ac.in", 2000},
	{"National Institute of Technology Tiruchirappalli", "NITT", "Premier NIT for engineering", "Tiruchirappalli", "https://www.nitt.edu", 1500},
	{"National Institute of Technology Warangal", "NITW", "Leading NIT for technical education", "Warangal", "https://www.nitw.ac.in", 1500},
	{"Delhi University", "DU", "Premier university for arts, science, and commerce", "New Delhi", "https://www.du.ac.in", 750},
	{"Jawaharlal Nehru University", "JNU", "Leading university for social sciences and languages", "New Delhi", "https://www.jnu.ac.in", 1000},
	{"Indian Institute of Science", "IISc", "Premier research institute for science and engineering", "Bangalore", "https://www.iisc.ac.in", 2500},
	{"Birla Institute of Technology and Science", "BITS", "Private engineering institute", "Pilani", "https://www.bits-pilani.ac.in", 3000},
}

type documentTypeSeed struct {
	name, code, description string
	required                bool
}

var documentTypeSeeds = []documentTypeSeed{
	{"Aadhar Card", "AADHAR", "Identity verification document", true},
	{"Driver License", "DRIVING_LICENSE", "Optional secondary ID", false},
	{"10th Marksheet", "TENTH_MARKSHEET", "Secondary education qualification", true},
	{"12th Marksheet", "TWELFTH_MARKSHEET", "Higher secondary qualification", true},
	{"Graduation Certificate", "GRADUATION_CERTIFICATE", "Graduation degree certificate", false},
	{"Passport", "PASSPORT", "Passport document", false},
}

// Universities returns fresh university rows with new IDs.
func Universities() []model.University {
	out := make([]model.University, 0, len(universitySeeds))
	for _, s := range universitySeeds {
		out = append(out, model.University{
			ID:             uuid.NewString(),
			Name:           s.name,
			Code:           s.code,
			Description:    s.description,
			Location:       s.location,
			Country:        "India",
			Website:        s.website,
			ApplicationFee: decimal.NewFromInt(s.fee),
			IsActive:       true,
		})
	}
	return out
}

// DocumentTypes returns fresh document type rows with new IDs.
func DocumentTypes() []model.DocumentType {
	out := make([]model.DocumentType, 0, len(documentTypeSeeds))
	for _, s := range documentTypeSeeds {
		out = append(out, model.DocumentType{
			ID:               uuid.NewString(),
			Name:             s.name,
			Code:             s.code,
			Description:      s.description,
			IsRequired:       s.required,
			MaxFileSize:      maxDocumentSize,
			AllowedMimeTypes: append([]string(nil), uploadMimeTypes...),
			IsActive:         true,
		})
	}
	return out
}

// Seed loads the catalog. Existing universities are left untouched and document types are
// updated in place, so running it twice is safe.
func Seed(ctx context.Context, universities repository.UniversityRepository, documents repository.DocumentRepository) error {
	if err := universities.Seed(ctx, Universities()); err != nil {
		return fmt.Errorf("seed universities: %w", err)
	}
	if err := documents.SeedTypes(ctx, DocumentTypes()); err != nil {
		return fmt.Errorf("seed document types: %w", err)
	}
	return nil
}
