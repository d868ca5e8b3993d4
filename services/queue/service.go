package queue

import (
	"context"
	"time"

	queueRepo "docqueue/database/repository/queue"
	"docqueue/models"
	"docqueue/utils"

	"go.uber.org/zap"
)

// secretCodeAttempts bounds the uniqueness retry loop on code generation.
const secretCodeAttempts = 5

// DefaultQueueService implements QueueService over a QueueRepository
// and a Notifier. The clock is injected so the engine stays a pure
// function of its inputs.
type DefaultQueueService struct {
	Repo     queueRepo.QueueRepository
	Notifier Notifier
	Now      func() time.Time
	Logger   *zap.Logger
}

func (s *DefaultQueueService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultQueueService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// load fetches and normalizes a queue record. The day-wise reset is
// applied in memory so reads always see today's counters; it is only
// persisted by the next write.
func (s *DefaultQueueService) load(ctx context.Context, id string) (*models.Queue, error) {
	q, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if err == queueRepo.ErrNotFound {
			return nil, ErrQueueNotFound
		}
		return nil, err
	}
	today := DateOf(s.now())
	q.Normalize(today)
	RolloverDay(q, today)
	return q, nil
}

func (s *DefaultQueueService) save(ctx context.Context, q *models.Queue) error {
	if err := s.Repo.Save(ctx, q); err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.Publish(q.ID)
	}
	return nil
}

// CreateQueue builds a new idle queue with a unique secret code.
func (s *DefaultQueueService) CreateQueue(ctx context.Context, input CreateQueueInput) (*models.Queue, error) {
	now := s.now()

	sessionType := input.SessionType
	if sessionType == "" {
		inferred, err := s.inferSessionType(ctx, input.DoctorName)
		if err != nil {
			return nil, err
		}
		sessionType = inferred
	}

	code, err := s.uniqueSecretCode(ctx, input.CodePrefix)
	if err != nil {
		return nil, err
	}

	avg := input.AvgTimePerPatient
	if avg <= 0 {
		avg = models.DefaultAvgTime
	}

	q := &models.Queue{
		ID:                utils.NewQueueID(),
		DoctorName:        input.DoctorName,
		SecretCode:        code,
		SessionType:       sessionType,
		Status:            models.StatusIdle,
		CurrentDate:       DateOf(now),
		SerialLimit:       input.SerialLimit,
		AvgTimePerPatient: avg,
		PatientHistory:    []models.PatientEntry{},
		CreatedAt:         now,
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	s.logger().Info("queue created",
		zap.String("queueId", q.ID),
		zap.String("doctor", q.DoctorName),
		zap.String("session", q.SessionType))
	return q, nil
}

// inferSessionType defaults a doctor's second queue of the day to the
// opposite session of the first.
func (s *DefaultQueueService) inferSessionType(ctx context.Context, doctorName string) (string, error) {
	queues, err := s.Repo.List(ctx)
	if err != nil {
		return "", err
	}
	today := DateOf(s.now())
	hasMorning, hasEvening := false, false
	for i := range queues {
		q := &queues[i]
		if q.DoctorName != doctorName {
			continue
		}
		date := q.CurrentDate
		if date == "" {
			date = DateOf(q.CreatedAt)
		}
		if date != today {
			continue
		}
		switch q.SessionType {
		case models.SessionEvening:
			hasEvening = true
		default:
			hasMorning = true
		}
	}
	if hasMorning && !hasEvening {
		return models.SessionEvening, nil
	}
	return models.SessionMorning, nil
}

func (s *DefaultQueueService) uniqueSecretCode(ctx context.Context, prefix string) (string, error) {
	var code string
	for attempt := 0; attempt < secretCodeAttempts; attempt++ {
		generated, err := utils.GenerateSecretCode(prefix)
		if err != nil {
			return "", err
		}
		exists, err := s.Repo.ExistsBySecretCode(ctx, generated)
		if err != nil {
			return "", err
		}
		if !exists {
			return generated, nil
		}
		code = generated
	}
	// Collisions five times in a row are vanishingly unlikely; accept
	// the last candidate rather than failing queue creation.
	s.logger().Warn("secret code uniqueness retries exhausted", zap.String("code", code))
	return code, nil
}

func (s *DefaultQueueService) GetQueue(ctx context.Context, id string) (*models.Queue, error) {
	return s.load(ctx, id)
}

func (s *DefaultQueueService) DeleteQueue(ctx context.Context, id string) error {
	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		if err == queueRepo.ErrNotFound {
			return ErrQueueNotFound
		}
		return err
	}
	if s.Notifier != nil {
		s.Notifier.Publish(id)
	}
	return nil
}

func (s *DefaultQueueService) ListQueues(ctx context.Context) ([]models.Queue, error) {
	return s.Repo.List(ctx)
}

// DoctorNames returns the distinct doctor names across stored queues.
func (s *DefaultQueueService) DoctorNames(ctx context.Context) ([]string, error) {
	queues, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(queues))
	names := make([]string, 0, len(queues))
	for i := range queues {
		name := queues[i].DoctorName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

func (s *DefaultQueueService) VerifySecret(ctx context.Context, id, secretCode string) error {
	q, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if q.SecretCode != secretCode {
		return ErrBadSecretCode
	}
	return nil
}

// Join issues the next serial of the day to a visitor.
func (s *DefaultQueueService) Join(ctx context.Context, id string, input JoinInput) (*JoinResult, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	serial, err := Join(q, input.PatientName, input.Mobile, input.Age, now)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return &JoinResult{
		SerialNumber: serial,
		PatientName:  input.PatientName,
		WaitMinutes:  WaitTimeAt(q, serial, now),
	}, nil
}

// GetPatientStatus looks up one serial and computes its live wait time.
func (s *DefaultQueueService) GetPatientStatus(ctx context.Context, id string, serial int) (*PatientStatus, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := q.EntryBySerial(serial)
	if entry == nil {
		return nil, ErrPatientNotFound
	}
	return &PatientStatus{
		Entry:         *entry,
		CurrentNumber: q.CurrentNumber,
		QueueStatus:   q.Status,
		WaitMinutes:   WaitTimeAt(q, serial, s.now()),
	}, nil
}

func (s *DefaultQueueService) WaitTime(ctx context.Context, id string, serial int) (int, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	return WaitTimeAt(q, serial, s.now()), nil
}

// transition runs one engine mutation and persists the record only
// when it actually changed. Failed preconditions fall through as
// no-ops, preserving the engine's lenient contract.
func (s *DefaultQueueService) transition(ctx context.Context, id string, op string, apply func(q *models.Queue) bool) (*models.Queue, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apply(q) {
		s.logger().Debug("transition ignored",
			zap.String("queueId", id),
			zap.String("op", op),
			zap.String("status", q.Status))
		return q, nil
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *DefaultQueueService) Start(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "start", func(q *models.Queue) bool {
		return Start(q, s.now())
	})
}

func (s *DefaultQueueService) Pause(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "pause", Pause)
}

func (s *DefaultQueueService) Resume(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "resume", Resume)
}

func (s *DefaultQueueService) End(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "end", End)
}

func (s *DefaultQueueService) ResumeAfterEnd(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "resumeAfterEnd", ResumeAfterEnd)
}

func (s *DefaultQueueService) Archive(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "archive", Archive)
}

func (s *DefaultQueueService) Reset(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "reset", Reset)
}

func (s *DefaultQueueService) CallNext(ctx context.Context, id string) (*models.Queue, error) {
	return s.transition(ctx, id, "callNext", func(q *models.Queue) bool {
		completing := q.CurrentNumber
		changed, recovered := CallNext(q, s.now())
		if recovered {
			s.logger().Warn("history entry missing for completed serial, placeholder created",
				zap.String("queueId", id),
				zap.Int("serial", completing))
		}
		return changed
	})
}

func (s *DefaultQueueService) MarkAbsent(ctx context.Context, id string, serial int) (*models.Queue, error) {
	return s.transition(ctx, id, "markAbsent", func(q *models.Queue) bool {
		return MarkAbsent(q, serial)
	})
}

func (s *DefaultQueueService) ReAddAbsent(ctx context.Context, id string, serial int) (*models.Queue, error) {
	return s.transition(ctx, id, "reAddAbsent", func(q *models.Queue) bool {
		return ReAddAbsent(q, serial, s.now())
	})
}
