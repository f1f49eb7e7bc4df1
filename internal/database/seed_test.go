package database

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
)

func newDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedBootstrapAdmin(t *testing.T) {
	db := newDBForTest(t)

	report, err := Seed(db, "admin@university.test", "Bootstrap@123")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.Noop || report.CreatedUsers != 1 {
		t.Fatalf("expected 1 created user, got %+v", report)
	}

	var admin domain.User
	if err := db.Where("email = ?", "admin@university.test").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", admin.Role)
	}
	ok, err := security.VerifyPassword(admin.PasswordHash, "Bootstrap@123")
	if err != nil || !ok {
		t.Fatalf("admin password does not verify: ok=%v err=%v", ok, err)
	}
	if !admin.PasswordChangedAt.Before(admin.CreatedAt) {
		t.Fatal("expected PasswordChangedAt backdated so the password can be rotated at once")
	}

	report, err = Seed(db, "admin@university.test", "Bootstrap@123")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !report.Noop {
		t.Fatal("expected second seed to be a noop")
	}
}

func TestSeedWithoutAdminConfiguredIsNoop(t *testing.T) {
	db := newDBForTest(t)

	report, err := Seed(db, "  ", "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !report.Noop {
		t.Fatal("expected noop when no admin email is configured")
	}
}

func TestSeedRejectsWeakAdminPassword(t *testing.T) {
	db := newDBForTest(t)

	if _, err := Seed(db, "admin@university.test", "weak"); err == nil {
		t.Fatal("expected weak bootstrap password to be rejected")
	}
	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("no user should exist after rejected seed, got %d", count)
	}
}

func TestSeedSampleAccounts(t *testing.T) {
	db := newDBForTest(t)

	report, err := SeedSampleAccounts(db, "development")
	if err != nil {
		t.Fatalf("seed samples: %v", err)
	}
	if report.CreatedUsers != 2 {
		t.Fatalf("created %d sample users, want 2", report.CreatedUsers)
	}

	var student domain.User
	if err := db.Where("email = ?", "student@university.test").First(&student).Error; err != nil {
		t.Fatalf("load sample student: %v", err)
	}
	if student.Role != domain.RoleStudent {
		t.Fatalf("role = %q, want student", student.Role)
	}

	report, err = SeedSampleAccounts(db, "development")
	if err != nil {
		t.Fatalf("second sample seed: %v", err)
	}
	if !report.Noop || report.CreatedUsers != 0 {
		t.Fatalf("expected second sample seed to be a noop, got %+v", report)
	}
}

func TestSeedSampleAccountsRefusesProduction(t *testing.T) {
	db := newDBForTest(t)

	if _, err := SeedSampleAccounts(db, "production"); err == nil {
		t.Fatal("expected sample seeding to refuse production")
	}
}
