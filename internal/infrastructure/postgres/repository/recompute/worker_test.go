package recompute

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// promauto регистрирует в глобальном реестре, поэтому один набор на весь пакет
var testMetrics = metrics.NewRecomputeMetrics()

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.Message
	err       error
}

func (p *fakePublisher) Publish(topic string, msgs ...domain.Message) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msgs...)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newTestWorker(db *gorm.DB, publisher domain.PublisherPort) (*Worker, domain.RecomputeJobRepository) {
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	return NewWorker(
		newTestEngine(db),
		jobs,
		nil, // handle вызывается напрямую, подписка не нужна
		publisher,
		"recompute-jobs",
		"test-group",
		1,
		2*time.Minute,
		testMetrics,
		testLogger(),
	), jobs
}

func enqueueJob(t *testing.T, jobs domain.RecomputeJobRepository, scope domain.RecomputeScope, scopeID string, maxAttempts int32) *domain.RecomputeJob {
	t.Helper()
	job := NewJob(scope, scopeID, domain.ReasonManual, "test", maxAttempts)
	require.NoError(t, jobs.CreateJob(job))
	return job
}

func TestWorker_HandleCompletesJob(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	publisher := &fakePublisher{}
	worker, jobs := newTestWorker(db, publisher)
	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)

	worker.handle(context.Background(), domain.Message{Key: []byte(job.ID), Value: mustEvent(job)})

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)
	assert.Equal(t, int32(1), stored.Attempts)
	assert.Equal(t, int64(1), stored.Processed)
	assert.Equal(t, int64(1), stored.Inserted)
	assert.Nil(t, stored.LeaseExpiresAt)
	require.NotNil(t, stored.FinishedAt)

	status := worker.Status()
	assert.Equal(t, int64(1), status.ProcessedTotal)
	assert.Equal(t, int64(0), status.ErrorsTotal)
	assert.False(t, status.LastFullSuccess.IsZero(), "FULL success timestamp recorded")
}

func TestWorker_HandleSkipsCompletedJob(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	worker, jobs := newTestWorker(db, publisher)
	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)
	require.NoError(t, jobs.MarkCompleted(job.ID, &domain.RecomputeResult{}))

	// повторная доставка того же события не перезапускает джобу
	worker.handle(context.Background(), domain.Message{Key: []byte(job.ID), Value: mustEvent(job)})

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)
	assert.Equal(t, int32(0), stored.Attempts)
	assert.Equal(t, int64(0), worker.Status().ProcessedTotal)
}

func TestWorker_HandleRequeuesOnEngineFailure(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	// ломаем движок: без производной таблицы delete-шаг падает
	require.NoError(t, db.Migrator().DropTable(&models.VisiblePriceRowModel{}))

	publisher := &fakePublisher{}
	worker, jobs := newTestWorker(db, publisher)
	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)

	worker.handle(context.Background(), domain.Message{Key: []byte(job.ID), Value: mustEvent(job)})

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, stored.Status, "attempts remain, job requeued")
	assert.Equal(t, int32(1), stored.Attempts)
	assert.NotEmpty(t, stored.Error)
	assert.Equal(t, 1, publisher.count(), "retry event republished")
	assert.Equal(t, int64(1), worker.Status().ErrorsTotal)
}

func TestWorker_HandleFailsJobAfterMaxAttempts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.VisiblePriceRowModel{}))

	publisher := &fakePublisher{}
	worker, jobs := newTestWorker(db, publisher)
	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 1)

	worker.handle(context.Background(), domain.Message{Key: []byte(job.ID), Value: mustEvent(job)})

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.Equal(t, 0, publisher.count(), "exhausted job is not republished")
}

func TestWorker_HandleUnknownJobIsSkipped(t *testing.T) {
	db := newTestDB(t)
	publisher := &fakePublisher{}
	worker, _ := newTestWorker(db, publisher)

	orphan := NewJob(domain.RecomputeScopeFull, "", domain.ReasonManual, "test", 3)
	worker.handle(context.Background(), domain.Message{Key: []byte(orphan.ID), Value: mustEvent(orphan)})

	assert.Equal(t, int64(0), worker.Status().ProcessedTotal)
	assert.Equal(t, int64(0), worker.Status().ErrorsTotal, "unknown job is not an error")
}

func TestWorker_MarkRunningIsExclusive(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)

	_, err := jobs.MarkRunning(job.ID, time.Now().Add(time.Minute))
	require.NoError(t, err)

	// второй захват той же джобы проигрывает
	_, err = jobs.MarkRunning(job.ID, time.Now().Add(time.Minute))
	assert.True(t, errors.Is(err, domain.ErrJobNotFound))
}

func TestWatchdog_RequeuesExpiredLease(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	publisher := &fakePublisher{}
	watchdog := NewWatchdog(jobs, publisher, "recompute-jobs", time.Second, testLogger())

	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)
	_, err := jobs.MarkRunning(job.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	require.NoError(t, watchdog.reclaim())

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, stored.Status)
	assert.Nil(t, stored.LeaseExpiresAt)
	assert.Equal(t, 1, publisher.count())
}

func TestWatchdog_FailsExhaustedJob(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	publisher := &fakePublisher{}
	watchdog := NewWatchdog(jobs, publisher, "recompute-jobs", time.Second, testLogger())

	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 1)
	_, err := jobs.MarkRunning(job.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	require.NoError(t, watchdog.reclaim())

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.Equal(t, 0, publisher.count())
}

func TestWatchdog_IgnoresLiveLease(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	publisher := &fakePublisher{}
	watchdog := NewWatchdog(jobs, publisher, "recompute-jobs", time.Second, testLogger())

	job := enqueueJob(t, jobs, domain.RecomputeScopeFull, "", 3)
	_, err := jobs.MarkRunning(job.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, watchdog.reclaim())

	stored, err := jobs.GetJobByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, stored.Status)
	assert.Equal(t, 0, publisher.count())
}

func TestOutboxRelay_DrainDispatchesPendingEntries(t *testing.T) {
	db := newTestDB(t)
	outbox := repository.NewDefaultOutboxRepository(db)
	publisher := &fakePublisher{}
	relay := NewOutboxRelay(outbox, publisher, "recompute-jobs", time.Second, testMetrics, testLogger())

	require.NoError(t, db.Create(&models.RecomputeOutboxModel{
		ID:        "out1",
		JobID:     "job1",
		Payload:   []byte(`{"job_id":"job1"}`),
		Status:    domain.OutboxPending,
		CreatedAt: time.Now(),
	}).Error)

	require.NoError(t, relay.Drain())

	assert.Equal(t, 1, publisher.count())

	var stored models.RecomputeOutboxModel
	require.NoError(t, db.First(&stored, "id = ?", "out1").Error)
	assert.Equal(t, domain.OutboxDispatched, stored.Status)
	require.NotNil(t, stored.DispatchedAt)

	// повторный проход не трогает доставленную запись
	require.NoError(t, relay.Drain())
	assert.Equal(t, 1, publisher.count())
}

func TestOutboxRelay_PublishFailureKeepsEntryPending(t *testing.T) {
	db := newTestDB(t)
	outbox := repository.NewDefaultOutboxRepository(db)
	publisher := &fakePublisher{err: errors.New("broker unavailable")}
	relay := NewOutboxRelay(outbox, publisher, "recompute-jobs", time.Second, testMetrics, testLogger())

	require.NoError(t, db.Create(&models.RecomputeOutboxModel{
		ID:        "out1",
		JobID:     "job1",
		Payload:   []byte(`{"job_id":"job1"}`),
		Status:    domain.OutboxPending,
		CreatedAt: time.Now(),
	}).Error)

	require.NoError(t, relay.Drain())

	var stored models.RecomputeOutboxModel
	require.NoError(t, db.First(&stored, "id = ?", "out1").Error)
	assert.Equal(t, domain.OutboxPending, stored.Status)
	assert.Equal(t, int32(1), stored.Attempts)
	assert.Equal(t, "broker unavailable", stored.LastError)
}

func TestScheduler_RegisterReplacesPreviousInstance(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)

	first := NewScheduler(db, jobs, &fakePublisher{}, "recompute-jobs", 5*time.Minute, "instance-a", 3, testLogger())
	require.NoError(t, first.Register())

	second := NewScheduler(db, jobs, &fakePublisher{}, "recompute-jobs", 5*time.Minute, "instance-b", 3, testLogger())
	require.NoError(t, second.Register())

	var tasks []models.ScheduledTaskModel
	require.NoError(t, db.Find(&tasks).Error)
	require.Len(t, tasks, 1, "exactly one registration per task")
	assert.Equal(t, "instance-b", tasks[0].InstanceID)
}

func TestScheduler_EnqueueFullCreatesAndPublishesJob(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	publisher := &fakePublisher{}
	scheduler := NewScheduler(db, jobs, publisher, "recompute-jobs", 5*time.Minute, "instance-a", 3, testLogger())

	require.NoError(t, scheduler.enqueueFull())

	listed, total, err := jobs.ListJobs(domain.RecomputeJobFilter{Status: domain.JobStatusPending}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.RecomputeScopeFull, listed[0].Scope)
	assert.Equal(t, domain.ReasonPeriodic, listed[0].Reason)
	assert.Equal(t, 1, publisher.count())
}

func TestScheduler_EnqueueFullSurvivesPublishFailure(t *testing.T) {
	db := newTestDB(t)
	jobs := repository.NewDefaultRecomputeJobRepository(db)
	scheduler := NewScheduler(db, jobs, &fakePublisher{err: errors.New("broker unavailable")}, "recompute-jobs", 5*time.Minute, "instance-a", 3, testLogger())

	require.NoError(t, scheduler.enqueueFull(), "publish failure is not fatal, job stays PENDING")

	_, total, err := jobs.ListJobs(domain.RecomputeJobFilter{Status: domain.JobStatusPending}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
