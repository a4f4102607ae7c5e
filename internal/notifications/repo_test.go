//go:build db
// +build db

package notifications

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("PREPDECK_DB_DSN")
	if dsn == "" {
		t.Skip("PREPDECK_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func seedTenantUser(t *testing.T, tx *gorm.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()

	tenant := &models.Tenant{
		ID:   uuid.New(),
		Name: "Dedupe Deli",
		Slug: fmt.Sprintf("dedupe-deli-%s", uuid.NewString()[:8]),
	}
	if err := tx.Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	user := &models.User{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("pd_test_%s@example.com", uuid.NewString()),
		FullName: "Dedupe User",
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return tenant.ID, user.ID
}

func TestCreateDedupedCollapsesSameDayDuplicates(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	tenantID, userID := seedTenantUser(t, tx)

	now := time.Now().UTC()
	key := models.DedupeKeyFor(tenantID, userID, enums.NotificationTypeLowStock, now)
	build := func() *models.Notification {
		return &models.Notification{
			ID:        uuid.New(),
			TenantID:  tenantID,
			UserID:    userID,
			Type:      enums.NotificationTypeLowStock,
			Title:     "Low stock alert",
			Message:   "Milk is low",
			Severity:  enums.SeverityCritical,
			DedupeKey: &key,
		}
	}

	inserted, err := repo.CreateDeduped(ctx, build())
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to write a row")
	}

	inserted, err = repo.CreateDeduped(ctx, build())
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate insert to be a no-op")
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exists, err := repo.ExistsSince(ctx, tenantID, userID, enums.NotificationTypeLowStock, midnight)
	if err != nil {
		t.Fatalf("exists since: %v", err)
	}
	if !exists {
		t.Fatal("expected existence check to see the inserted row")
	}
}

func TestDigestPendingAndMarkEmailed(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	tenantID, userID := seedTenantUser(t, tx)

	create := func(age time.Duration) uuid.UUID {
		n := &models.Notification{
			ID:        uuid.New(),
			TenantID:  tenantID,
			UserID:    userID,
			Type:      enums.NotificationTypeLowStock,
			Title:     "Low stock alert",
			Message:   "Flour is low",
			CreatedAt: time.Now().UTC().Add(-age),
		}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("create notification: %v", err)
		}
		return n.ID
	}

	recent := create(2 * time.Hour)
	older := create(5 * time.Hour)
	create(30 * time.Hour) // outside the trailing window

	since := time.Now().UTC().Add(-24 * time.Hour)
	pending, err := repo.ListPendingDigest(ctx, tenantID, userID, since)
	if err != nil {
		t.Fatalf("list pending digest: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending notifications, got %d", len(pending))
	}
	if pending[0].ID != older || pending[1].ID != recent {
		t.Errorf("expected chronological order, got %v then %v", pending[0].ID, pending[1].ID)
	}

	updated, err := repo.MarkEmailed(ctx, []uuid.UUID{recent, older}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mark emailed: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 rows marked, got %d", updated)
	}

	pending, err = repo.ListPendingDigest(ctx, tenantID, userID, since)
	if err != nil {
		t.Fatalf("second pending list: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after marking, got %d", len(pending))
	}
}
