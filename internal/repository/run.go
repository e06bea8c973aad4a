package repository

import (
	"rewatch/internal/db"
	"rewatch/internal/model"
)

type RunRepository struct{}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

func (r *RunRepository) Save(result model.RunResult) error {
	run := model.NewRun(result)
	return db.DB.Create(&run).Error
}

func (r *RunRepository) GetStats() (model.RunStats, error) {
	var stats model.RunStats
	if err := db.DB.Model(&model.Run{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.Run{}).
		Where("status = ?", model.RunSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.Run{}).
		Where("status = ?", model.RunCanceled).
		Count(&stats.Canceled).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success - stats.Canceled
	return stats, nil
}

func (r *RunRepository) GetRecent(limit int) ([]model.Run, error) {
	var runs []model.Run
	result := db.DB.
		Order("started_at desc").
		Order("id desc").
		Limit(limit).
		Find(&runs)

	return runs, result.Error
}

func (r *RunRepository) GetFailed(limit int) ([]model.Run, error) {
	var runs []model.Run
	result := db.DB.
		Where("status IN ?", []model.RunStatus{model.RunFailed, model.RunSpawnError}).
		Order("started_at desc").
		Order("id desc").
		Limit(limit).
		Find(&runs)

	return runs, result.Error
}
