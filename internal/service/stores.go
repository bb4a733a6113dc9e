package service

import (
	"context"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/repository"
)

// UserStore is implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// TestRecordStore is implemented by repository.TestRecordRepository.
type TestRecordStore interface {
	Create(ctx context.Context, record *model.TestRecord) error
	FindByRecordID(ctx context.Context, userID, recordID string) (*model.TestRecord, error)
	ExistsByRecordID(ctx context.Context, userID, recordID string) (bool, error)
	ListByUser(ctx context.Context, userID string, filter repository.ListFilter) ([]model.TestRecord, error)
	Save(ctx context.Context, record *model.TestRecord) error
	DeleteByRecordID(ctx context.Context, userID, recordID string) (bool, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	SubjectRollup(ctx context.Context, userID string) ([]repository.SubjectRollup, error)
}

// StatsCacher is implemented by repository.StatsCache.
type StatsCacher interface {
	Get(ctx context.Context, userID string, dst any) (bool, error)
	Set(ctx context.Context, userID string, summary any) error
	Invalidate(ctx context.Context, userID string) error
}
