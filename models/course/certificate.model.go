package course

import (
	"time"

	"gorm.io/gorm"
)

// CertificateStatus defines the lifecycle state of a certificate
type CertificateStatus string

const (
	CertificateActive  CertificateStatus = "active"
	CertificateRevoked CertificateStatus = "revoked"
	CertificateExpired CertificateStatus = "expired"
)

// Certificate is the immutable record of a completed formation. Snapshot
// fields are captured at issuance so later edits to the user or formation do
// not retroactively alter an issued certificate.
type Certificate struct {
	gorm.Model
	EnrollmentID      uint              `json:"enrollment_id" gorm:"index;not null"`
	UserID            uint              `json:"user_id" gorm:"index;not null"`
	FormationID       uint              `json:"formation_id" gorm:"index;not null"`
	CertificateNumber string            `json:"certificate_number" gorm:"uniqueIndex;not null"`
	VerificationCode  string            `json:"verification_code" gorm:"uniqueIndex;not null"`
	Status            CertificateStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	IssuedAt          *time.Time        `json:"issued_at"`
	ExpiresAt         *time.Time        `json:"expires_at"` // nil: does not expire
	RevokedAt         *time.Time        `json:"revoked_at"`
	RevokedReason     string            `json:"revoked_reason"`
	StudentName       string            `json:"student_name"`
	FormationTitle    string            `json:"formation_title"`
	InstructorName    string            `json:"instructor_name"`
	CompletionDate    *time.Time        `json:"completion_date"`
	ArtifactPath      string            `json:"artifact_path"`
	ArtifactSizeBytes int64             `json:"artifact_size_bytes"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) IsRevoked() bool {
	return c.Status == CertificateRevoked
}

// IsExpired reports whether the certificate is expired, either by explicit
// status or by its expiry date having passed.
func (c *Certificate) IsExpired(at time.Time) bool {
	if c.Status == CertificateExpired {
		return true
	}
	return c.ExpiresAt != nil && c.ExpiresAt.Before(at)
}

// IsValid reports whether the certificate is active and not expired.
func (c *Certificate) IsValid(at time.Time) bool {
	return c.Status == CertificateActive && !c.IsExpired(at)
}

// MarkRevoked transitions the certificate to revoked with an optional reason.
func (c *Certificate) MarkRevoked(reason string, at time.Time) {
	c.Status = CertificateRevoked
	c.RevokedAt = &at
	c.RevokedReason = reason
}

// MarkExpired transitions the certificate to expired.
func (c *Certificate) MarkExpired() {
	c.Status = CertificateExpired
}

// MarkActive reverses a revocation, clearing the revocation fields.
func (c *Certificate) MarkActive() {
	c.Status = CertificateActive
	c.RevokedAt = nil
	c.RevokedReason = ""
}
