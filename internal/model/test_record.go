package model

import (
	"neet_tracker_backend/internal/scoring"
	"time"
)

type Subject string

const (
	Physics   Subject = "Physics"
	Chemistry Subject = "Chemistry"
	Biology   Subject = "Biology"
)

// Subjects lists every accepted subject in display order.
var Subjects = []Subject{Physics, Chemistry, Biology}

func (s Subject) Valid() bool {
	switch s {
	case Physics, Chemistry, Biology:
		return true
	}
	return false
}

// TestRecord is one saved practice test. The aggregate columns are always
// derived from Questions by scoring.Compute.
// swagger:model TestRecord
type TestRecord struct {
	PK            uint              `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RecordID      string            `gorm:"column:record_id;size:64;not null;uniqueIndex:idx_user_record,priority:2" json:"id"`
	UserID        string            `gorm:"size:36;not null;uniqueIndex:idx_user_record,priority:1;index:idx_user_taken,priority:1" json:"userId"`
	Subject       Subject           `gorm:"type:enum('Physics','Chemistry','Biology');not null" json:"subject"`
	QuestionCount int               `gorm:"not null" json:"questionCount"`
	Questions     []scoring.Outcome `gorm:"type:json;serializer:json" json:"questions"`
	TakenAt       time.Time         `gorm:"not null;index:idx_user_taken,priority:2,sort:desc" json:"dateISO"`
	Score         int               `gorm:"not null" json:"score"`
	Correct       int               `gorm:"not null" json:"correct"`
	Wrong         int               `gorm:"not null" json:"wrong"`
	NotAttempted  int               `gorm:"not null" json:"notAttempted"`
	ByChapter     scoring.Chapters  `gorm:"type:json;serializer:json" json:"byChapter"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (TestRecord) TableName() string {
	return "test_records"
}

// ApplyQuestions replaces the questions and recomputes every derived field.
func (r *TestRecord) ApplyQuestions(questions []scoring.Outcome) {
	agg := scoring.Compute(questions)
	r.Questions = questions
	r.QuestionCount = len(questions)
	r.Score = agg.Score
	r.Correct = agg.Correct
	r.Wrong = agg.Wrong
	r.NotAttempted = agg.NotAttempted
	r.ByChapter = agg.ByChapter
}

// Aggregate returns the stored summary in engine form.
func (r *TestRecord) Aggregate() scoring.Aggregate {
	return scoring.Aggregate{
		Correct:      r.Correct,
		Wrong:        r.Wrong,
		NotAttempted: r.NotAttempted,
		Score:        r.Score,
		ByChapter:    r.ByChapter,
	}
}
