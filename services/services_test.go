package services

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testTime is the fixed clock used by every service under test.
var testTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return testTime
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	return db
}

// stubProvider is a canned payment provider for tests.
type stubProvider struct {
	checkoutErr error
	refundErr   error
	refunds     []float64
}

func (p *stubProvider) CreateCheckout(payment *models.Payment, user *models.User, formation *courseModels.Formation) (string, string, error) {
	if p.checkoutErr != nil {
		return "", "", p.checkoutErr
	}
	sessionID := fmt.Sprintf("cs_test_%d", payment.ID)
	return sessionID, "https://checkout.test/" + sessionID, nil
}

func (p *stubProvider) CreateRefund(payment *models.Payment, amount float64, reason string) (*ProviderRefund, error) {
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunds = append(p.refunds, amount)
	return &ProviderRefund{ID: fmt.Sprintf("re_test_%d", len(p.refunds)), Amount: amount, Status: "succeeded"}, nil
}

// stubRenderer is a canned certificate renderer for tests.
type stubRenderer struct {
	renderErr error
	renders   int
}

func (r *stubRenderer) Render(cert *courseModels.Certificate) (string, int64, error) {
	if r.renderErr != nil {
		return "", 0, r.renderErr
	}
	r.renders++
	return "/tmp/certificates/" + cert.CertificateNumber + ".html", 2048, nil
}

func (r *stubRenderer) Delete(cert *courseModels.Certificate) error {
	return nil
}

func newEnrollmentService(db *gorm.DB) *EnrollmentService {
	s := NewEnrollmentService(db)
	s.Now = fixedNow
	return s
}

func newProgressService(db *gorm.DB) *ProgressService {
	s := NewProgressService(db, newEnrollmentService(db))
	s.Now = fixedNow
	return s
}

func newPaymentService(db *gorm.DB, provider *stubProvider) *PaymentService {
	s := NewPaymentService(db, provider, "EUR")
	s.Now = fixedNow
	return s
}

func newWebhookService(db *gorm.DB, payments *PaymentService) *WebhookService {
	s := NewWebhookService(db, payments)
	s.Now = fixedNow
	return s
}

func newCertificateService(db *gorm.DB, renderer *stubRenderer) *CertificateService {
	s := NewCertificateService(db, renderer)
	s.Now = fixedNow
	s.Rand = rand.New(rand.NewSource(1))
	return s
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Claire",
		LastName:  "Martin",
		Email:     fmt.Sprintf("claire+%d@example.com", time.Now().UnixNano()),
		Password:  "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createFormation(t *testing.T, db *gorm.DB, price float64, tier courseModels.PricingTier) *courseModels.Formation {
	t.Helper()
	formation := &courseModels.Formation{
		Title:          "Applied Accessibility",
		Slug:           fmt.Sprintf("applied-accessibility-%d", time.Now().UnixNano()),
		Price:          price,
		PricingTier:    tier,
		InstructorName: "J. Leroy",
		IsPublished:    true,
	}
	require.NoError(t, db.Create(formation).Error)
	return formation
}

// createOutline builds published modules with the given number of lessons each,
// in order, and returns the lessons grouped per module.
func createOutline(t *testing.T, db *gorm.DB, formationID uint, lessonsPerModule ...int) [][]courseModels.Lesson {
	t.Helper()

	outline := make([][]courseModels.Lesson, 0, len(lessonsPerModule))
	for m, count := range lessonsPerModule {
		module := &courseModels.Module{
			FormationID: formationID,
			Title:       fmt.Sprintf("Module %d", m+1),
			OrderIndex:  m,
			IsPublished: true,
		}
		require.NoError(t, db.Create(module).Error)

		lessons := make([]courseModels.Lesson, 0, count)
		for l := 0; l < count; l++ {
			lesson := courseModels.Lesson{
				ModuleID:    module.ID,
				FormationID: formationID,
				Title:       fmt.Sprintf("Lesson %d.%d", m+1, l+1),
				OrderIndex:  l,
				IsPublished: true,
			}
			require.NoError(t, db.Create(&lesson).Error)
			lessons = append(lessons, lesson)
		}
		outline = append(outline, lessons)
	}
	return outline
}

func createEnrollment(t *testing.T, db *gorm.DB, userID, formationID uint, status courseModels.EnrollmentStatus) *courseModels.Enrollment {
	t.Helper()
	now := testTime
	enrollment := &courseModels.Enrollment{
		UserID:      userID,
		FormationID: formationID,
		Status:      status,
		EnrolledAt:  &now,
	}
	if status == courseModels.EnrollmentCompleted {
		enrollment.ProgressPercentage = 100
		enrollment.CompletedAt = &now
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

func createPayment(t *testing.T, db *gorm.DB, userID uint, amount float64, status models.PaymentStatus, intentID string) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		UserID:    userID,
		Type:      models.PaymentTypeEnrollment,
		Status:    status,
		Reference: NewPaymentReference(),
		Amount:    amount,
		Currency:  "EUR",
	}
	if intentID != "" {
		payment.StripePaymentIntentID = &intentID
	}
	if status == models.PaymentCompleted {
		now := testTime
		payment.PaidAt = &now
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}
