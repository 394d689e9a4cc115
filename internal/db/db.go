package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pagesmith-backend/internal/chat"
	"pagesmith-backend/internal/models"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

func AutoMigrate(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(&models.User{}, &chat.Message{}); err != nil {
		log.Fatalf("db automigrate: %v", err)
	}
}

// Ping verifies the underlying connection; used by the health endpoint.
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
