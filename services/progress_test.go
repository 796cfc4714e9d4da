package services

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestProgressStartCreatesRecord(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 2)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	record, err := service.Start(enrollment.ID, outline[0][0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, courseModels.LessonInProgress, record.Status)
	assert.Equal(t, 1, record.AccessCount)
	require.NotNil(t, record.StartedAt)
	assert.Equal(t, testTime, record.StartedAt.UTC())

	// The enrollment access bookkeeping moved too
	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, 1, reloaded.AccessCount)
	require.NotNil(t, reloaded.LastAccessedAt)
}

func TestProgressStartCountsOncePerAccess(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	_, err := service.Start(enrollment.ID, outline[0][0].ID, nil)
	require.NoError(t, err)

	record, err := service.Start(enrollment.ID, outline[0][0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, record.AccessCount)
	assert.Equal(t, courseModels.LessonInProgress, record.Status)
}

func TestProgressUpdateClampsAndCompletes(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	record, err := service.UpdateProgress(enrollment.ID, outline[0][0].ID, UpdateProgressInput{ProgressPercentage: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, record.ProgressPercentage)
	assert.Equal(t, courseModels.LessonCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)
}

func TestProgressUpdateAccumulatesTime(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	seconds := 120
	_, err := service.UpdateProgress(enrollment.ID, outline[0][0].ID, UpdateProgressInput{
		ProgressPercentage: 30,
		TimeSpentSeconds:   &seconds,
	})
	require.NoError(t, err)

	record, err := service.AddTimeSpent(enrollment.ID, outline[0][0].ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 180, record.TimeSpentSeconds)
}

func TestProgressNegativeTimeRejected(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	_, err := service.AddTimeSpent(enrollment.ID, outline[0][0].ID, -5)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProgressCompleteFirstTimestampWins(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	first, err := service.Complete(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)
	completedAt := *first.CompletedAt

	second, err := service.Complete(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)
	require.NotNil(t, second.CompletedAt)
	assert.Equal(t, completedAt, *second.CompletedAt)
}

func TestProgressCrossFormationRejected(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	enrolled := createFormation(t, db, 0, courseModels.PricingTierFree)
	other := createFormation(t, db, 0, courseModels.PricingTierFree)
	otherOutline := createOutline(t, db, other.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, enrolled.ID, courseModels.EnrollmentActive)

	_, err := service.Start(enrollment.ID, otherOutline[0][0].ID, nil)
	assert.ErrorIs(t, err, ErrCrossCourseReference)
}

func TestProgressFavoriteAndNotes(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	record, err := service.ToggleFavorite(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)
	assert.True(t, record.IsFavorite)

	record, err = service.ToggleFavorite(enrollment.ID, outline[0][0].ID)
	require.NoError(t, err)
	assert.False(t, record.IsFavorite)

	notes := datatypes.JSON(`{"bookmarks":[42],"text":"revisit the demo"}`)
	record, err = service.UpdateNotes(enrollment.ID, outline[0][0].ID, notes)
	require.NoError(t, err)
	assert.JSONEq(t, string(notes), string(record.Notes))
}

func TestProgressResumePosition(t *testing.T) {
	db := newTestDB(t)
	service := newProgressService(db)
	user := createUser(t, db)
	formation := createFormation(t, db, 0, courseModels.PricingTierFree)
	outline := createOutline(t, db, formation.ID, 1)
	enrollment := createEnrollment(t, db, user.ID, formation.ID, courseModels.EnrollmentActive)

	position := 305
	record, err := service.Start(enrollment.ID, outline[0][0].ID, &position)
	require.NoError(t, err)
	require.NotNil(t, record.CurrentPosition)
	assert.Equal(t, 305, *record.CurrentPosition)
}
