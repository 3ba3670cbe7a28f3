package repository

import (
	"time"

	"reportship/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Save(result model.TransferResult) error {
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}

	finishedAt := result.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	history := model.History{
		AttemptID:  result.ID,
		Outcome:    result.Outcome,
		LocalPath:  result.Request.LocalPath,
		ReportName: result.Request.ReportName,
		RemotePath: result.Destination.RemotePath,
		ErrMsg:     errMsg,
		StartedAt:  result.StartedAt,
		FinishedAt: finishedAt,
	}

	return r.db.Create(&history).Error
}

type Stats struct {
	Total     int64 `json:"total"`
	Shipped   int64 `json:"shipped"`
	Unchanged int64 `json:"unchanged"`
	Failed    int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := r.db.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("outcome = ?", model.OutcomeShipped).
		Count(&stats.Shipped).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("outcome = ?", model.OutcomeUnchanged).
		Count(&stats.Unchanged).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Shipped - stats.Unchanged
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Order("finished_at desc").
		Order("id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

// GetFailed returns dead-letter candidates, oldest first.
func (r *HistoryRepository) GetFailed() ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Where("outcome IN ?", []model.Outcome{model.OutcomeFailed, model.OutcomeAuthFailed}).
		Where("retried = ?", false).
		Order("finished_at asc").
		Order("id asc").
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) MarkRetried(id uint) error {
	return r.db.Model(&model.History{}).
		Where("id = ?", id).
		Update("retried", true).Error
}
