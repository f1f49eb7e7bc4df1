package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"
)

func newRepoForTest(t *testing.T) UserRepository {
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
	return NewUserRepository(db)
}

func newTestUser(email, role string) *domain.User {
	return &domain.User{
		Email:             email,
		FirstName:         "Test",
		LastName:          "User",
		Role:              role,
		PasswordHash:      "$argon2id$stub",
		PasswordHistory:   domain.PasswordHistory{"$argon2id$stub"},
		PasswordChangedAt: time.Now().UTC(),
	}
}

func TestUserRepositoryCRUD(t *testing.T) {
	repo := newRepoForTest(t)

	u := newTestUser("alice@test.com", domain.RoleStudent)
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated uuid on create")
	}

	byEmail, err := repo.FindByEmail("alice@test.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	byID, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byEmail.ID != byID.ID {
		t.Fatal("lookups disagree")
	}
	if len(byEmail.PasswordHistory) != 1 {
		t.Fatalf("history lost in round trip: %v", byEmail.PasswordHistory)
	}

	byEmail.LastLoginIP = "10.0.0.1"
	now := time.Now().UTC()
	byEmail.LastLoginAt = &now
	if err := repo.Update(byEmail); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if again.LastLoginIP != "10.0.0.1" || again.LastLoginAt == nil {
		t.Fatalf("login bookkeeping not persisted: %+v", again)
	}
}

func TestUserRepositoryNotFound(t *testing.T) {
	repo := newRepoForTest(t)
	if _, err := repo.FindByEmail("ghost@test.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	repo := newRepoForTest(t)
	if err := repo.Create(newTestUser("dupe@test.com", domain.RoleStudent)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(newTestUser("dupe@test.com", domain.RoleFaculty)); err == nil {
		t.Fatal("expected unique index violation")
	}
}

func TestUserRepositoryRoleFilter(t *testing.T) {
	repo := newRepoForTest(t)
	for i, role := range []string{domain.RoleStudent, domain.RoleStudent, domain.RoleFaculty} {
		if err := repo.Create(newTestUser(fmt.Sprintf("u%d@test.com", i), role)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	students, err := repo.FindByRole(domain.RoleStudent)
	if err != nil {
		t.Fatalf("find by role: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("students = %d, want 2", len(students))
	}
	all, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}
