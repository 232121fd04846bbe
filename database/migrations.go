package database

import (
	"familyquest/models"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Family{},
		&models.User{},
		&models.RefreshToken{},
		&models.RevokedToken{},
		&models.Task{},
		&models.TaskProposal{},
		&models.SideQuest{},
		&models.SideQuestProposal{},
	}
}

// Migrate runs AutoMigrate for all models inside a transaction where the
// driver supports transactional DDL.
func Migrate(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.AutoMigrate(Models()...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
