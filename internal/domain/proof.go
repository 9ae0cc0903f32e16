package domain

import "time"

type ProofStatus string

const (
	ProofStatusUploaded            ProofStatus = "UPLOADED"
	ProofStatusPendingVerification ProofStatus = "PENDING_VERIFICATION"
	ProofStatusVerified            ProofStatus = "VERIFIED"
	ProofStatusRejected            ProofStatus = "REJECTED"
)

// ProofAllowedMimeTypes maps accepted mime types to their expected file
// extensions.
var ProofAllowedMimeTypes = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"image/gif":       {".gif"},
	"application/pdf": {".pdf"},
}

const ProofMaxSizeBytes = 10 << 20

type PaymentProof struct {
	ID                string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PaymentID         string      `json:"payment_id" gorm:"type:varchar(36);index;not null"`
	TransferReference string      `json:"transfer_reference" gorm:"type:varchar(16);index;not null"`
	FileURL           string      `json:"file_url" gorm:"type:varchar(500);not null"`
	FileSize          int64       `json:"file_size" gorm:"not null"`
	MimeType          string      `json:"mime_type" gorm:"type:varchar(50);not null"`
	Status            ProofStatus `json:"status" gorm:"type:varchar(25);not null"`
	VerifiedBy        string      `json:"verified_by,omitempty" gorm:"type:varchar(36)"`
	VerifiedAt        *time.Time  `json:"verified_at,omitempty"`
	Notes             string      `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt         time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

func (PaymentProof) TableName() string {
	return "payment_proofs"
}
