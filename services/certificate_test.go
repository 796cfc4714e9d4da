package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateGenerate(t *testing.T) {
	db := newTestDB(t)
	renderer := &stubRenderer{}
	service := newCertificateService(db, renderer)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	cert, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cert.CertificateNumber, "CERT-"))
	assert.Len(t, cert.CertificateNumber, len("CERT-")+12)
	assert.Len(t, cert.VerificationCode, 8)
	assert.Equal(t, courseModels.CertificateActive, cert.Status)

	// Snapshot fields are captured at issuance
	assert.Equal(t, user.FullName(), cert.StudentName)
	assert.Equal(t, formation.Title, cert.FormationTitle)
	assert.Equal(t, formation.InstructorName, cert.InstructorName)
	require.NotNil(t, cert.CompletionDate)

	assert.Equal(t, 1, renderer.renders)
	assert.Contains(t, cert.ArtifactPath, cert.CertificateNumber)
	assert.Equal(t, int64(2048), cert.ArtifactSizeBytes)
}

func TestCertificateGenerateIdempotent(t *testing.T) {
	db := newTestDB(t)
	renderer := &stubRenderer{}
	service := newCertificateService(db, renderer)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	first, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	second, err := service.Generate(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)
	assert.Equal(t, 1, renderer.renders)
}

func TestCertificateGenerateRequiresCompletion(t *testing.T) {
	db := newTestDB(t)
	service := newCertificateService(db, &stubRenderer{})
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	_, err := service.Generate(enrollment.ID)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestCertificateRendererFailureLeavesNoRecord(t *testing.T) {
	db := newTestDB(t)
	renderer := &stubRenderer{renderErr: errors.New("disk full")}
	service := newCertificateService(db, renderer)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	_, err := service.Generate(enrollment.ID)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&courseModels.Certificate{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCertificateRevokeAndReissue(t *testing.T) {
	db := newTestDB(t)
	service := newCertificateService(db, &stubRenderer{})
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	first, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	revoked, err := service.Revoke(first.ID, "issued by mistake")
	require.NoError(t, err)
	assert.Equal(t, courseModels.CertificateRevoked, revoked.Status)
	assert.Equal(t, "issued by mistake", revoked.RevokedReason)
	require.NotNil(t, revoked.RevokedAt)

	_, err = service.Revoke(first.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyRevoked)

	// A fresh certificate can be issued after revocation
	second, err := service.Generate(enrollment.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.CertificateNumber, second.CertificateNumber)
}

func TestCertificateReactivate(t *testing.T) {
	db := newTestDB(t)
	service := newCertificateService(db, &stubRenderer{})
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	cert, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	// Only revoked certificates can be reactivated
	_, err = service.Reactivate(cert.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = service.Revoke(cert.ID, "clerical error")
	require.NoError(t, err)

	reactivated, err := service.Reactivate(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.CertificateActive, reactivated.Status)
	assert.Nil(t, reactivated.RevokedAt)
	assert.Empty(t, reactivated.RevokedReason)
}

func TestCertificateVerification(t *testing.T) {
	db := newTestDB(t)
	service := newCertificateService(db, &stubRenderer{})
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	cert, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	byCode, err := service.VerifyByCode(cert.VerificationCode)
	require.NoError(t, err)
	assert.True(t, byCode.Valid)
	require.NotNil(t, byCode.Certificate)
	assert.Equal(t, cert.ID, byCode.Certificate.ID)

	byNumber, err := service.VerifyByNumber(cert.CertificateNumber)
	require.NoError(t, err)
	assert.True(t, byNumber.Valid)

	missing, err := service.VerifyByCode("NOPE0000")
	require.NoError(t, err)
	assert.False(t, missing.Valid)
	assert.Equal(t, "not found", missing.Reason)

	_, err = service.Revoke(cert.ID, "")
	require.NoError(t, err)

	revoked, err := service.VerifyByCode(cert.VerificationCode)
	require.NoError(t, err)
	assert.False(t, revoked.Valid)
	assert.Equal(t, "revoked", revoked.Reason)
	// The record is still returned for display
	require.NotNil(t, revoked.Certificate)
}

func TestCertificateExpiry(t *testing.T) {
	db := newTestDB(t)
	service := newCertificateService(db, &stubRenderer{})
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentCompleted)

	cert, err := service.Generate(enrollment.ID)
	require.NoError(t, err)

	// Backdate the expiry
	expired := testTime.Add(-24 * time.Hour)
	require.NoError(t, db.Model(cert).Update("expires_at", &expired).Error)

	result, err := service.VerifyByCode(cert.VerificationCode)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "expired", result.Reason)

	// The sweep flips the stored status
	count, err := service.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var reloaded courseModels.Certificate
	require.NoError(t, db.First(&reloaded, cert.ID).Error)
	assert.Equal(t, courseModels.CertificateExpired, reloaded.Status)

	// Nothing left to expire
	count, err = service.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
