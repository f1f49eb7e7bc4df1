package database

import (
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
	)
}
