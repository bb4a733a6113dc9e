package service

import (
	"context"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/repository"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/tracing"

	"go.uber.org/zap"
)

type OverallStats struct {
	TotalTests     int64           `json:"totalTests"`
	TotalQuestions int64           `json:"totalQuestions"`
	TotalScore     int64           `json:"totalScore"`
	AvgScore       float64         `json:"avgScore"`
	Subjects       []model.Subject `json:"subjects"`
}

type SubjectStats struct {
	Subject        model.Subject `json:"subject"`
	Count          int64         `json:"count"`
	AvgScore       float64       `json:"avgScore"`
	TotalQuestions int64         `json:"totalQuestions"`
}

// swagger:model StatsSummary
type StatsSummary struct {
	Overall   OverallStats   `json:"overall"`
	BySubject []SubjectStats `json:"bySubject"`
}

// summarize folds the per-subject rows into the overall block.
func summarize(rows []repository.SubjectRollup) StatsSummary {
	summary := StatsSummary{
		Overall:   OverallStats{Subjects: []model.Subject{}},
		BySubject: make([]SubjectStats, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Overall.TotalTests += row.Count
		summary.Overall.TotalQuestions += row.TotalQuestions
		summary.Overall.TotalScore += row.TotalScore
		summary.Overall.Subjects = append(summary.Overall.Subjects, row.Subject)
		summary.BySubject = append(summary.BySubject, SubjectStats{
			Subject:        row.Subject,
			Count:          row.Count,
			AvgScore:       row.AvgScore,
			TotalQuestions: row.TotalQuestions,
		})
	}
	if summary.Overall.TotalTests > 0 {
		summary.Overall.AvgScore = float64(summary.Overall.TotalScore) / float64(summary.Overall.TotalTests)
	}
	return summary
}

// Stats rolls up every record of the user, using the cache when warm.
func (s *TestRecordService) Stats(ctx context.Context, userID string) (*StatsSummary, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TestRecordService.Stats")
	defer span.End()

	if s.Cache != nil {
		var cached StatsSummary
		hit, err := s.Cache.Get(ctx, userID, &cached)
		if err != nil {
			logger.Log.Warn("stats cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	rows, err := s.Repo.SubjectRollup(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := summarize(rows)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, userID, summary); err != nil {
			logger.Log.Warn("stats cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &summary, nil
}
