package services

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessDeniedForInactiveEnrollment(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)

	cases := []struct {
		status courseModels.EnrollmentStatus
		reason string
	}{
		{courseModels.EnrollmentPending, "Enrollment is pending activation"},
		{courseModels.EnrollmentCancelled, "Enrollment has been cancelled"},
		{courseModels.EnrollmentSuspended, "Enrollment has been suspended"},
	}

	for _, tc := range cases {
		enrollment := &courseModels.Enrollment{
			UserID:      user.ID,
			FormationID: formation.ID,
			Status:      tc.status,
		}
		require.NoError(t, db.Create(enrollment).Error)

		decision, err := service.CanAccessLesson(enrollment.ID, outline[0][0].ID)
		require.NoError(t, err)
		assert.False(t, decision.Accessible)
		assert.Equal(t, tc.reason, decision.Reason)

		require.NoError(t, db.Unscoped().Delete(enrollment).Error)
	}
}

func TestAccessDeniedAcrossFormations(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	enrolled := createFormation(t, db, 0, courseModels.PricingTierFree)
	other := createFormation(t, db, 0, courseModels.PricingTierFree)
	otherOutline := createOutline(t, db, other.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, enrolled.ID, courseModels.EnrollmentActive)

	decision, err := service.CanAccessLesson(enrollment.ID, otherOutline[0][0].ID)
	require.NoError(t, err)
	assert.False(t, decision.Accessible)
	assert.Equal(t, "Lesson does not belong to the enrolled formation", decision.Reason)
}

func TestAccessDeniedForUnpublishedLesson(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	require.NoError(t, db.Model(&outline[0][0]).Update("is_published", false).Error)

	decision, err := service.CanAccessLesson(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)
	assert.False(t, decision.Accessible)
	assert.Equal(t, "Lesson is not published", decision.Reason)
}

func TestAccessModuleOrderGate(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	progress := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 2, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	secondModuleLesson := outline[1][0]

	// Module 1 incomplete: module 2 is gated
	decision, err := service.CanAccessLesson(enrollment.ID, secondModuleLesson.ID)
	require.NoError(t, err)
	assert.False(t, decision.Accessible)
	assert.Equal(t, "Previous modules must be completed first", decision.Reason)
	assert.Equal(t, "Module 1", decision.BlockedBy)

	// Completing half of module 1 is not enough
	_, err = progress.Complete(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)

	decision, err = service.CanAccessLesson(enrollment.ID, secondModuleLesson.ID)
	require.NoError(t, err)
	assert.False(t, decision.Accessible)

	// Completing all of module 1 opens module 2
	_, err = progress.Complete(enrollment.ID, outline[0][1].ID)
	require.NoError(t, err)

	decision, err = service.CanAccessLesson(enrollment.ID, secondModuleLesson.ID)
	require.NoError(t, err)
	assert.True(t, decision.Accessible)
	assert.Empty(t, decision.Reason)
}

func TestAccessFirstModuleOpenImmediately(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 2, 2)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	decision, err := service.CanAccessLesson(enrollment.ID, outline[0][1].ID)
	require.NoError(t, err)
	assert.True(t, decision.Accessible)
}

func TestAccessPreviewLessonStillGated(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	gated := outline[1][0]
	require.NoError(t, db.Model(&gated).Update("is_preview", true).Error)

	// Preview affects catalog visibility, not the sequential gate
	decision, err := service.CanAccessLesson(enrollment.ID, gated.ID)
	require.NoError(t, err)
	assert.False(t, decision.Accessible)
}

func TestAccessUnknownIDs(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	_, err := service.CanAccessLesson(9999, outline[0][0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.CanAccessLesson(enrollment.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
