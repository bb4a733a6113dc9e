package service

import (
	"context"
	"errors"
	"fmt"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/repository"
	"neet_tracker_backend/internal/scoring"
	"neet_tracker_backend/internal/util"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/monitoring"
	"neet_tracker_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TestRecordService struct {
	Repo  TestRecordStore
	Cache StatsCacher
	Now   func() time.Time
}

func NewTestRecordService(repo TestRecordStore, cache StatsCacher) *TestRecordService {
	return &TestRecordService{
		Repo:  repo,
		Cache: cache,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// QuestionInput is the wire form of one question outcome.
type QuestionInput struct {
	Number  int    `json:"number" binding:"min=0"`
	Chapter string `json:"chapter"`
	Status  string `json:"status" binding:"required,oneof=correct wrong not_attempted"`
}

// swagger:model CreateTestRequest
type CreateTestRequest struct {
	ID        string          `json:"id" binding:"required,max=64"`
	Subject   string          `json:"subject" binding:"required,oneof=Physics Chemistry Biology"`
	DateISO   string          `json:"dateISO"`
	Questions []QuestionInput `json:"questions" binding:"required,dive"`
}

// swagger:model UpdateTestRequest
type UpdateTestRequest struct {
	Subject   *string          `json:"subject" binding:"omitempty,oneof=Physics Chemistry Biology"`
	DateISO   *string          `json:"dateISO"`
	Questions *[]QuestionInput `json:"questions" binding:"omitempty,dive"`
}

// PreviewRequest carries questions that are scored but not stored.
type PreviewRequest struct {
	Questions []QuestionInput `json:"questions" binding:"dive"`
}

// DeleteResult reports how many records a delete removed.
type DeleteResult struct {
	Message      string `json:"message"`
	ID           string `json:"id,omitempty"`
	DeletedCount *int64 `json:"deletedCount,omitempty"`
}

func toOutcomes(in []QuestionInput) ([]scoring.Outcome, error) {
	out := make([]scoring.Outcome, 0, len(in))
	for i, q := range in {
		status, err := scoring.ParseStatus(q.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", util.ErrValidation, i+1, err)
		}
		out = append(out, scoring.Outcome{Number: q.Number, Chapter: q.Chapter, Status: status})
	}
	return out, nil
}

func parseSubject(s string) (model.Subject, error) {
	subject := model.Subject(s)
	if !subject.Valid() {
		return "", fmt.Errorf("%w: unknown subject %q", util.ErrValidation, s)
	}
	return subject, nil
}

func (s *TestRecordService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dateISO must be an ISO-8601 timestamp", util.ErrValidation)
	}
	return t.UTC(), nil
}

// Preview scores questions without persisting anything.
func (s *TestRecordService) Preview(req PreviewRequest) (scoring.Aggregate, error) {
	outcomes, err := toOutcomes(req.Questions)
	if err != nil {
		return scoring.Aggregate{}, err
	}
	return scoring.Compute(outcomes), nil
}

func (s *TestRecordService) Create(ctx context.Context, userID string, req CreateTestRequest) (*model.TestRecord, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TestRecordService.Create")
	defer span.End()

	id := strings.TrimSpace(req.ID)
	if id == "" || req.Subject == "" || req.Questions == nil {
		return nil, fmt.Errorf("%w: missing required fields", util.ErrValidation)
	}
	subject, err := parseSubject(req.Subject)
	if err != nil {
		return nil, err
	}
	outcomes, err := toOutcomes(req.Questions)
	if err != nil {
		return nil, err
	}
	takenAt, err := s.parseDate(req.DateISO)
	if err != nil {
		return nil, err
	}

	exists, err := s.Repo.ExistsByRecordID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrRecordExists
	}

	record := &model.TestRecord{
		RecordID: id,
		UserID:   userID,
		Subject:  subject,
		TakenAt:  takenAt,
	}
	record.ApplyQuestions(outcomes)

	if err := s.Repo.Create(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrRecordExists
		}
		return nil, err
	}
	s.invalidate(ctx, userID)

	monitoring.TestsRecorded.WithLabelValues(string(subject)).Inc()
	monitoring.TestScores.WithLabelValues(string(subject)).Observe(float64(record.Score))
	span.SetAttributes(attribute.String("subject", string(subject)), attribute.Int("score", record.Score))
	logger.Log.Info("test record created",
		zap.String("user_id", userID),
		zap.String("record_id", id),
		zap.String("subject", string(subject)),
		zap.Int("score", record.Score))

	return record, nil
}

func (s *TestRecordService) Get(ctx context.Context, userID, recordID string) (*model.TestRecord, error) {
	record, err := s.Repo.FindByRecordID(ctx, userID, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRecordNotFound
	}
	return record, err
}

// List returns records newest first. subject may be empty.
func (s *TestRecordService) List(ctx context.Context, userID, subject string) ([]model.TestRecord, error) {
	filter := repository.ListFilter{}
	if subject != "" {
		sub, err := parseSubject(subject)
		if err != nil {
			return nil, err
		}
		filter.Subject = sub
	}

	records, err := s.Repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.TestRecord{}
	}
	return records, nil
}

func (s *TestRecordService) Update(ctx context.Context, userID, recordID string, req UpdateTestRequest) (*model.TestRecord, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TestRecordService.Update")
	defer span.End()

	record, err := s.Get(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	if req.Subject != nil {
		subject, err := parseSubject(*req.Subject)
		if err != nil {
			return nil, err
		}
		record.Subject = subject
	}
	if req.DateISO != nil {
		takenAt, err := s.parseDate(*req.DateISO)
		if err != nil {
			return nil, err
		}
		record.TakenAt = takenAt
	}
	if req.Questions != nil {
		outcomes, err := toOutcomes(*req.Questions)
		if err != nil {
			return nil, err
		}
		record.ApplyQuestions(outcomes)
	}

	if err := s.Repo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return record, nil
}

func (s *TestRecordService) Delete(ctx context.Context, userID, recordID string) error {
	removed, err := s.Repo.DeleteByRecordID(ctx, userID, recordID)
	if err != nil {
		return err
	}
	if !removed {
		return util.ErrRecordNotFound
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *TestRecordService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID)
	logger.Log.Info("test records cleared", zap.String("user_id", userID), zap.Int64("deleted", n))
	return n, nil
}

func (s *TestRecordService) invalidate(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, userID); err != nil {
		logger.Log.Warn("stats cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
