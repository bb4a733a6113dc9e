package repository

import (
	"context"
	"neet_tracker_backend/internal/model"

	"gorm.io/gorm"
)

type TestRecordRepository struct {
	DB *gorm.DB
}

func NewTestRecordRepository(db *gorm.DB) *TestRecordRepository {
	return &TestRecordRepository{DB: db}
}

// ListFilter narrows ListByUser. Zero values mean no filter.
type ListFilter struct {
	Subject model.Subject
	Limit   int
}

// SubjectRollup is one row of the per-subject statistics query.
type SubjectRollup struct {
	Subject        model.Subject `json:"subject"`
	Count          int64         `json:"count"`
	TotalScore     int64         `json:"totalScore"`
	AvgScore       float64       `json:"avgScore"`
	TotalQuestions int64         `json:"totalQuestions"`
}

func (r *TestRecordRepository) Create(ctx context.Context, record *model.TestRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

func (r *TestRecordRepository) FindByRecordID(ctx context.Context, userID, recordID string) (*model.TestRecord, error) {
	var record model.TestRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND record_id = ?", userID, recordID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *TestRecordRepository) ExistsByRecordID(ctx context.Context, userID, recordID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.TestRecord{}).
		Where("user_id = ? AND record_id = ?", userID, recordID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns the user's records newest first.
func (r *TestRecordRepository) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]model.TestRecord, error) {
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []model.TestRecord
	err := query.Order("taken_at desc").Order("id desc").Find(&records).Error
	return records, err
}

func (r *TestRecordRepository) Save(ctx context.Context, record *model.TestRecord) error {
	return r.DB.WithContext(ctx).Save(record).Error
}

// DeleteByRecordID reports whether a row was removed.
func (r *TestRecordRepository) DeleteByRecordID(ctx context.Context, userID, recordID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND record_id = ?", userID, recordID).
		Delete(&model.TestRecord{})
	return res.RowsAffected > 0, res.Error
}

func (r *TestRecordRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.TestRecord{})
	return res.RowsAffected, res.Error
}

func (r *TestRecordRepository) SubjectRollup(ctx context.Context, userID string) ([]SubjectRollup, error) {
	var rows []SubjectRollup
	err := r.DB.WithContext(ctx).Model(&model.TestRecord{}).
		Select("subject, COUNT(*) AS count, COALESCE(SUM(score), 0) AS total_score, " +
			"COALESCE(AVG(score), 0) AS avg_score, COALESCE(SUM(question_count), 0) AS total_questions").
		Where("user_id = ?", userID).
		Group("subject").
		Order("subject").
		Scan(&rows).Error
	return rows, err
}
