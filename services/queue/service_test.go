package queue

import (
	"context"
	"testing"
	"time"

	queueRepo "docqueue/database/repository/queue"
	"docqueue/models"
	"docqueue/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	svc       *DefaultQueueService
	repo      queueRepo.QueueRepository
	published *[]string
}

func newServiceFixture(now time.Time) serviceFixture {
	repo := queueRepo.NewMemoryQueueRepo()
	broker := notify.NewBroker()
	published := &[]string{}
	broker.Subscribe(func(queueID string) {
		*published = append(*published, queueID)
	})
	svc := &DefaultQueueService{
		Repo:     repo,
		Notifier: broker,
		Now:      func() time.Time { return now },
		Logger:   zap.NewNop(),
	}
	return serviceFixture{svc: svc, repo: repo, published: published}
}

func TestCreateQueueDefaults(t *testing.T) {
	f := newServiceFixture(testNow)
	q, err := f.svc.CreateQueue(context.Background(), CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.NotEmpty(t, q.SecretCode)
	assert.Equal(t, models.StatusIdle, q.Status)
	assert.Equal(t, models.SessionMorning, q.SessionType)
	assert.Equal(t, DateOf(testNow), q.CurrentDate)
	assert.InDelta(t, models.DefaultAvgTime, q.AvgTimePerPatient, 0.001)
	assert.Equal(t, []string{q.ID}, *f.published)
}

func TestCreateQueueInfersOppositeSession(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()

	first, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)
	require.Equal(t, models.SessionMorning, first.SessionType)

	second, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionEvening, second.SessionType)

	// A different doctor starts over at morning.
	other, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Das"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionMorning, other.SessionType)
}

func TestJoinPublishesAndReturnsWait(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman", AvgTimePerPatient: 6})
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, q.ID)
	require.NoError(t, err)

	first, err := f.svc.Join(ctx, q.ID, JoinInput{PatientName: "Amina"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SerialNumber)
	assert.Zero(t, first.WaitMinutes, "serial 1 is already being served")

	second, err := f.svc.Join(ctx, q.ID, JoinInput{PatientName: "Belal"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SerialNumber)
	assert.Positive(t, second.WaitMinutes)

	// create + start + two joins, one event each.
	assert.Len(t, *f.published, 4)
}

func TestJoinUnknownQueue(t *testing.T) {
	f := newServiceFixture(testNow)
	_, err := f.svc.Join(context.Background(), "missing", JoinInput{PatientName: "Amina"})
	assert.ErrorIs(t, err, ErrQueueNotFound)
}

func TestVerifySecret(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)

	assert.NoError(t, f.svc.VerifySecret(ctx, q.ID, q.SecretCode))
	assert.ErrorIs(t, f.svc.VerifySecret(ctx, q.ID, "WRONG"), ErrBadSecretCode)
}

func TestGetPatientStatus(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, q.ID, JoinInput{PatientName: "Amina", Mobile: "017", Age: 34})
	require.NoError(t, err)

	status, err := f.svc.GetPatientStatus(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Amina", status.Entry.PatientName)
	assert.Equal(t, models.StatusIdle, status.QueueStatus)
	assert.Zero(t, status.WaitMinutes, "idle queue has no estimate")

	_, err = f.svc.GetPatientStatus(ctx, q.ID, 9)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestTransitionNoOpDoesNotPersist(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)
	before := len(*f.published)

	// Resuming an idle queue fails its precondition; the caller still
	// gets the current record back.
	got, err := f.svc.Resume(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, got.Status)
	assert.Len(t, *f.published, before, "a no-op must not notify")
}

func TestReadAppliesDayRollover(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	yesterday := testNow.Add(-24 * time.Hour)

	stale := &models.Queue{
		ID:                  "stale",
		DoctorName:          "Dr. Rahman",
		SecretCode:          "CODE",
		Status:              models.StatusActive,
		CurrentNumber:       4,
		TotalPatientsJoined: 9,
		CurrentDate:         DateOf(yesterday),
		AvgTimePerPatient:   5,
		PatientHistory:      []models.PatientEntry{presentEntry(1, yesterday)},
		CreatedAt:           yesterday,
	}
	require.NoError(t, f.repo.Save(ctx, stale))

	got, err := f.svc.GetQueue(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, DateOf(testNow), got.CurrentDate)
	assert.Zero(t, got.TotalPatientsJoined)
	assert.Equal(t, 4, got.CurrentNumber, "serving position survives the rollover")
	assert.Len(t, got.PatientHistory, 1, "history survives the rollover")

	serial, err := f.svc.Join(ctx, "stale", JoinInput{PatientName: "Amina"})
	require.NoError(t, err)
	assert.Equal(t, 1, serial.SerialNumber)
}

func TestArchiveLifecycle(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)

	// Archive is only reachable from ended.
	got, err := f.svc.Archive(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, got.Status)

	_, err = f.svc.End(ctx, q.ID)
	require.NoError(t, err)
	got, err = f.svc.Archive(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	_, err = f.svc.Join(ctx, q.ID, JoinInput{PatientName: "Amina"})
	assert.ErrorIs(t, err, ErrQueueEnded)
}

func TestDoctorNames(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	for _, name := range []string{"Dr. Rahman", "Dr. Das", "Dr. Rahman"} {
		_, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: name})
		require.NoError(t, err)
	}
	names, err := f.svc.DoctorNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dr. Rahman", "Dr. Das"}, names)
}

func TestDeleteQueue(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteQueue(ctx, q.ID))
	_, err = f.svc.GetQueue(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQueueNotFound)
	assert.ErrorIs(t, f.svc.DeleteQueue(ctx, q.ID), ErrQueueNotFound)
}

func TestCallNextThroughService(t *testing.T) {
	f := newServiceFixture(testNow)
	ctx := context.Background()
	q, err := f.svc.CreateQueue(ctx, CreateQueueInput{DoctorName: "Dr. Rahman"})
	require.NoError(t, err)
	for _, name := range []string{"Amina", "Belal"} {
		_, err = f.svc.Join(ctx, q.ID, JoinInput{PatientName: name})
		require.NoError(t, err)
	}
	_, err = f.svc.Start(ctx, q.ID)
	require.NoError(t, err)

	got, err := f.svc.CallNext(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentNumber)
	entry := got.EntryBySerial(1)
	require.NotNil(t, entry)
	assert.Equal(t, models.PatientCompleted, entry.Status)
}
