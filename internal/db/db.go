package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kindling-app/kindling/internal/config"
)

// Models lists every table this core owns or migrates. Shared with tests so
// the sqlite schema matches production.
func Models() []any {
	return []any{
		&User{},
		&Like{},
		&Match{},
		&UndoState{},
		&FriendRequest{},
		&Notification{},
		&Conversation{},
		&Block{},
	}
}

// NewDB initializes the database connection using DSN from config.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	database, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := database.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return database, nil
}
