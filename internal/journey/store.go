package journey

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
)

// forUpdate adds a row lock to the next query. SQLite has no row locks and
// serialises writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func loadJourney(db *gorm.DB, id string) (*models.Journey, error) {
	var journey models.Journey
	err := db.
		Preload("Hospital").
		Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Checkpoints.Department").
		First(&journey, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromStore(err, "journey not found")
	}
	return &journey, nil
}

func lockJourney(tx *gorm.DB, id string) (*models.Journey, error) {
	var journey models.Journey
	if err := forUpdate(tx).First(&journey, "id = ?", id).Error; err != nil {
		return nil, apperrors.FromStore(err, "journey not found")
	}
	return &journey, nil
}

func loadCheckpoints(tx *gorm.DB, journeyID string) ([]models.Checkpoint, error) {
	var checkpoints []models.Checkpoint
	err := tx.Preload("Department").
		Where("journey_id = ?", journeyID).
		Order("sequence ASC").
		Find(&checkpoints).Error
	if err != nil {
		return nil, apperrors.FromStore(err, "")
	}
	return checkpoints, nil
}

// takeSlot increments the department counter and returns the value it now
// holds. The read runs under the row lock taken by the UPDATE.
func takeSlot(tx *gorm.DB, departmentID string) (int, error) {
	res := tx.Model(&models.Department{}).
		Where("id = ?", departmentID).
		UpdateColumn("current_queue", gorm.Expr("current_queue + ?", 1))
	if res.Error != nil {
		return 0, apperrors.FromStore(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.NewNotFoundError("department not found")
	}
	return queueLength(tx, departmentID)
}

// releaseSlot decrements the department counter, never below zero.
func releaseSlot(tx *gorm.DB, departmentID string) error {
	err := tx.Model(&models.Department{}).
		Where("id = ? AND current_queue > 0", departmentID).
		UpdateColumn("current_queue", gorm.Expr("current_queue - ?", 1)).Error
	if err != nil {
		return apperrors.FromStore(err, "")
	}
	return nil
}

func queueLength(tx *gorm.DB, departmentID string) (int, error) {
	var dept models.Department
	if err := tx.Select("id", "current_queue").First(&dept, "id = ?", departmentID).Error; err != nil {
		return 0, apperrors.FromStore(err, "department not found")
	}
	return dept.CurrentQueue, nil
}

func saveCheckpoint(tx *gorm.DB, cp *models.Checkpoint) error {
	if err := tx.Omit(clause.Associations).Save(cp).Error; err != nil {
		return apperrors.FromStore(err, "")
	}
	return nil
}

func saveJourney(tx *gorm.DB, journey *models.Journey) error {
	if err := tx.Omit(clause.Associations).Save(journey).Error; err != nil {
		return apperrors.FromStore(err, "")
	}
	return nil
}
