package repository

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// setupScoreTestDB creates an in-memory SQLite database for testing.
func setupScoreTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.UserScore{}); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

func TestScoreRepository_GetByUser_NotFound(t *testing.T) {
	db := setupScoreTestDB(t)
	repo := NewScoreRepository(db)

	_, err := repo.GetByUser(1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestScoreRepository_Upsert(t *testing.T) {
	db := setupScoreTestDB(t)
	repo := NewScoreRepository(db)

	if err := repo.Upsert(&models.UserScore{
		UserID:     1,
		TotalScore: 45,
		ComputedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := repo.Upsert(&models.UserScore{
		UserID:      1,
		TotalScore:  95,
		WeeklyScore: 40,
		ComputedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	score, err := repo.GetByUser(1)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if score.TotalScore != 95 || score.WeeklyScore != 40 {
		t.Errorf("score = %d/%d, want 95/40", score.TotalScore, score.WeeklyScore)
	}

	var count int64
	db.Model(&models.UserScore{}).Count(&count)
	if count != 1 {
		t.Errorf("score rows = %d, want 1 (upsert must not duplicate)", count)
	}
}

func TestScoreRepository_GetTopByTotalScore(t *testing.T) {
	db := setupScoreTestDB(t)
	repo := NewScoreRepository(db)

	users := []models.User{
		{ID: 1, Name: "Badri"},
		{ID: 2, Name: "Chitra"},
		{ID: 3, Name: "Asha"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
	}

	scores := []*models.UserScore{
		{UserID: 1, TotalScore: 200},
		{UserID: 2, TotalScore: 200},
		{UserID: 3, TotalScore: 300},
	}
	for _, s := range scores {
		if err := repo.Upsert(s); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	top, err := repo.GetTopByTotalScore(2)
	if err != nil {
		t.Fatalf("GetTopByTotalScore failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d rows, want 2", len(top))
	}
	if top[0].UserID != 3 {
		t.Errorf("first place user = %d, want 3", top[0].UserID)
	}
	// Ties break on ascending user ID.
	if top[1].UserID != 1 {
		t.Errorf("second place user = %d, want 1", top[1].UserID)
	}
	if top[0].User.Name != "Asha" {
		t.Errorf("preloaded user name = %q, want Asha", top[0].User.Name)
	}
}
