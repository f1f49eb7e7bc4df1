package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
)

type SeedReport struct {
	CreatedUsers int  `json:"created_users"`
	Noop         bool `json:"noop"`
}

// Seed ensures the bootstrap admin exists. The password comes from the
// operator, is validated against the same complexity rules as any other
// account, and is marked a day old so it can be rotated immediately.
func Seed(db *gorm.DB, adminEmail, adminPassword string) (*SeedReport, error) {
	report := &SeedReport{}
	email := strings.TrimSpace(adminEmail)
	if email == "" {
		report.Noop = true
		return report, nil
	}

	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		report.Noop = true
		return report, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := security.ValidatePasswordComplexity(adminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin password: %w", err)
	}
	hash, err := security.HashPassword(adminPassword)
	if err != nil {
		return nil, err
	}
	admin := domain.User{
		Email:             email,
		FirstName:         "System",
		LastName:          "Administrator",
		Role:              domain.RoleAdmin,
		PasswordHash:      hash,
		PasswordHistory:   domain.PasswordHistory{hash},
		PasswordChangedAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	report.CreatedUsers++
	return report, nil
}

// Local development credential for the sample accounts below. Production
// seeding never reaches this path.
const sampleAccountPassword = "Welcome@123"

// SeedSampleAccounts creates a demo student and faculty member so a fresh
// local environment has someone to log in as. It refuses to run in
// production.
func SeedSampleAccounts(db *gorm.DB, env string) (*SeedReport, error) {
	if env == "production" {
		return nil, fmt.Errorf("sample accounts cannot be seeded in production")
	}
	report := &SeedReport{}
	samples := []struct {
		email, first, last, role string
	}{
		{"student@university.test", "Sample", "Student", domain.RoleStudent},
		{"faculty@university.test", "Sample", "Faculty", domain.RoleFaculty},
	}
	for _, s := range samples {
		var existing domain.User
		err := db.Where("email = ?", s.email).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		hash, err := security.HashPassword(sampleAccountPassword)
		if err != nil {
			return nil, err
		}
		user := domain.User{
			Email:             s.email,
			FirstName:         s.first,
			LastName:          s.last,
			Role:              s.role,
			PasswordHash:      hash,
			PasswordHistory:   domain.PasswordHistory{hash},
			PasswordChangedAt: time.Now().UTC().Add(-24 * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		report.CreatedUsers++
	}
	report.Noop = report.CreatedUsers == 0
	return report, nil
}
