package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

const (
	certificateNumberPrefix = "CERT-"
	certificateNumberLength = 12
	verificationCodeLength  = 8
	identifierCharset       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CertificateService issues, revokes and verifies completion certificates.
type CertificateService struct {
	DB       *gorm.DB
	Now      func() time.Time
	Rand     *rand.Rand
	Renderer CertificateRenderer
}

func NewCertificateService(db *gorm.DB, renderer CertificateRenderer) *CertificateService {
	return &CertificateService{
		DB:       db,
		Now:      time.Now,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		Renderer: renderer,
	}
}

// VerificationResult is the outcome of a certificate verification.
type VerificationResult struct {
	Valid       bool                      `json:"valid"`
	Reason      string                    `json:"reason,omitempty"`
	Certificate *courseModels.Certificate `json:"certificate,omitempty"`
}

// Generate issues a certificate for a completed enrollment. Re-invocation with
// an existing valid certificate returns it unchanged. Identifier generation
// loops until globally unique values are confirmed against the store; the
// rendered artifact is produced before any local row is written, so a renderer
// failure leaves no partial state.
func (s *CertificateService) Generate(enrollmentID uint) (*courseModels.Certificate, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	if !enrollment.IsCompleted() {
		return nil, fmt.Errorf("enrollment %d is %s: %w", enrollmentID, enrollment.Status, ErrNotEligible)
	}

	now := s.Now()

	var existing courseModels.Certificate
	err := s.DB.Where("enrollment_id = ?", enrollmentID).
		Order("id desc").First(&existing).Error
	if err == nil && existing.IsValid(now) {
		return &existing, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, enrollment.UserID).Error; err != nil {
		return nil, err
	}
	var formation courseModels.Formation
	if err := s.DB.First(&formation, enrollment.FormationID).Error; err != nil {
		return nil, err
	}

	completionDate := now
	if enrollment.CompletedAt != nil {
		completionDate = *enrollment.CompletedAt
	}

	for {
		number, err := s.uniqueIdentifier(certificateNumberPrefix, certificateNumberLength, "certificate_number")
		if err != nil {
			return nil, err
		}
		code, err := s.uniqueIdentifier("", verificationCodeLength, "verification_code")
		if err != nil {
			return nil, err
		}

		cert := &courseModels.Certificate{
			EnrollmentID:      enrollment.ID,
			UserID:            user.ID,
			FormationID:       formation.ID,
			CertificateNumber: number,
			VerificationCode:  code,
			Status:            courseModels.CertificateActive,
			IssuedAt:          &now,
			ExpiresAt:         nil, // certificates do not expire by default
			StudentName:       user.FullName(),
			FormationTitle:    formation.Title,
			InstructorName:    formation.InstructorName,
			CompletionDate:    &completionDate,
		}

		path, size, err := s.Renderer.Render(cert)
		if err != nil {
			return nil, fmt.Errorf("render certificate: %w", err)
		}
		cert.ArtifactPath = path
		cert.ArtifactSizeBytes = size

		if err := s.DB.Create(cert).Error; err != nil {
			if isDuplicateKey(err) {
				// A concurrent issuer claimed one of the identifiers between
				// the uniqueness check and the insert. Regenerate.
				continue
			}
			return nil, err
		}

		return cert, nil
	}
}

// Revoke marks a certificate revoked with an optional reason.
func (s *CertificateService) Revoke(certificateID uint, reason string) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := s.DB.First(&cert, certificateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate %d: %w", certificateID, ErrNotFound)
		}
		return nil, err
	}

	if cert.IsRevoked() {
		return nil, fmt.Errorf("certificate %d: %w", certificateID, ErrAlreadyRevoked)
	}

	cert.MarkRevoked(reason, s.Now())
	if err := s.DB.Save(&cert).Error; err != nil {
		return nil, err
	}

	return &cert, nil
}

// Reactivate reverses a revocation. Only revoked certificates qualify.
func (s *CertificateService) Reactivate(certificateID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := s.DB.First(&cert, certificateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate %d: %w", certificateID, ErrNotFound)
		}
		return nil, err
	}

	if !cert.IsRevoked() {
		return nil, fmt.Errorf("certificate %d is %s, not revoked: %w", certificateID, cert.Status, ErrInvalidState)
	}

	cert.MarkActive()
	if err := s.DB.Save(&cert).Error; err != nil {
		return nil, err
	}

	return &cert, nil
}

// VerifyByCode verifies a certificate by its verification code.
func (s *CertificateService) VerifyByCode(code string) (*VerificationResult, error) {
	return s.verify("verification_code = ?", code)
}

// VerifyByNumber verifies a certificate by its certificate number.
func (s *CertificateService) VerifyByNumber(number string) (*VerificationResult, error) {
	return s.verify("certificate_number = ?", number)
}

// ExpireOverdue marks active certificates whose expiry date has passed as
// expired and returns how many were affected. Used by the daily sweep.
func (s *CertificateService) ExpireOverdue() (int, error) {
	var certs []courseModels.Certificate
	err := s.DB.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
		courseModels.CertificateActive, s.Now()).
		Find(&certs).Error
	if err != nil {
		return 0, err
	}

	for i := range certs {
		certs[i].MarkExpired()
		if err := s.DB.Save(&certs[i]).Error; err != nil {
			return i, err
		}
	}

	return len(certs), nil
}

func (s *CertificateService) verify(query string, value string) (*VerificationResult, error) {
	var cert courseModels.Certificate
	err := s.DB.Where(query, value).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &VerificationResult{Valid: false, Reason: "not found"}, nil
		}
		return nil, err
	}

	if cert.IsRevoked() {
		// Still returned so the caller can display the revoked record.
		return &VerificationResult{Valid: false, Reason: "revoked", Certificate: &cert}, nil
	}

	if cert.IsExpired(s.Now()) {
		return &VerificationResult{Valid: false, Reason: "expired", Certificate: &cert}, nil
	}

	return &VerificationResult{Valid: true, Certificate: &cert}, nil
}

// uniqueIdentifier draws random identifiers until one is confirmed absent from
// the store. No iteration cap: generation may race other processes, so the
// loop retries until a free value is found.
func (s *CertificateService) uniqueIdentifier(prefix string, length int, column string) (string, error) {
	for {
		candidate := prefix + s.randomString(length)

		var count int64
		err := s.DB.Model(&courseModels.Certificate{}).
			Where(column+" = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func (s *CertificateService) randomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = identifierCharset[s.Rand.Intn(len(identifierCharset))]
	}
	return string(b)
}
