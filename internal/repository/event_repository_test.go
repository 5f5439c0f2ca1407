package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edupulse/engage/internal/models"
)

// setupEventTestDB creates an in-memory SQLite database for testing.
func setupEventTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.UserEvent{}); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

func TestEventRepository_Append_DefaultsCreatedAt(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewEventRepository(db)

	event := &models.UserEvent{UserID: 1, EventType: models.EventLogin}
	if err := repo.Append(event); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if event.CreatedAt.IsZero() {
		t.Error("Append should default CreatedAt")
	}
}

func TestEventRepository_GetByUserSince(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewEventRepository(db)

	cutoff := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	events := []*models.UserEvent{
		{UserID: 1, EventType: models.EventLogin, CreatedAt: cutoff.Add(-time.Hour)},
		{UserID: 1, EventType: models.EventCardView, CreatedAt: cutoff}, // boundary inclusive
		{UserID: 1, EventType: models.EventReferral, CreatedAt: cutoff.Add(time.Hour)},
		{UserID: 2, EventType: models.EventLogin, CreatedAt: cutoff.Add(time.Hour)},
	}
	for _, e := range events {
		if err := repo.Append(e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := repo.GetByUserSince(1, cutoff)
	if err != nil {
		t.Fatalf("GetByUserSince failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].EventType != models.EventCardView {
		t.Errorf("first event = %q, want card_view (boundary event, oldest first)", got[0].EventType)
	}
}

func TestEventRepository_CountByUserAndType(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewEventRepository(db)

	kinds := []models.EventKind{
		models.EventSocialPost,
		models.EventSocialPost,
		models.EventSocialLike,
	}
	for _, kind := range kinds {
		if err := repo.Append(&models.UserEvent{UserID: 1, EventType: kind}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	count, err := repo.CountByUserAndType(1, models.EventSocialPost)
	if err != nil {
		t.Fatalf("CountByUserAndType failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestEventRepository_ListUserIDs(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewEventRepository(db)

	for _, userID := range []uint{2, 1, 2, 3, 1} {
		if err := repo.Append(&models.UserEvent{UserID: userID, EventType: models.EventLogin}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	ids, err := repo.ListUserIDs()
	if err != nil {
		t.Fatalf("ListUserIDs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3 distinct", len(ids))
	}
	for i, want := range []uint{1, 2, 3} {
		if ids[i] != want {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want)
		}
	}
}
