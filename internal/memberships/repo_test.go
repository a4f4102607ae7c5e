//go:build db
// +build db

package memberships

import (
	"context"
	"fmt"
	"os"
	"testing"

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

func TestListActiveUserIDs(t *testing.T) {
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

	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     "Repo Diner",
		Slug:     fmt.Sprintf("repo-diner-%s", uuid.NewString()[:8]),
		Timezone: "America/Chicago",
	}
	if err := tx.Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	seed := func(role enums.MemberRole, status enums.MembershipStatus) uuid.UUID {
		user := &models.User{
			ID:       uuid.New(),
			Email:    fmt.Sprintf("pd_test_%s@example.com", uuid.NewString()),
			FullName: "Test Member",
		}
		if err := tx.Create(user).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
		membership := &models.TenantMembership{
			ID:       uuid.New(),
			TenantID: tenant.ID,
			UserID:   user.ID,
			Role:     role,
			Status:   status,
		}
		if err := tx.Create(membership).Error; err != nil {
			t.Fatalf("create membership: %v", err)
		}
		return user.ID
	}

	owner := seed(enums.MemberRoleOwner, enums.MembershipStatusActive)
	manager := seed(enums.MemberRoleManager, enums.MembershipStatusActive)
	staff := seed(enums.MemberRoleStaff, enums.MembershipStatusActive)
	seed(enums.MemberRoleManager, enums.MembershipStatusRevoked)
	seed(enums.MemberRoleOwner, enums.MembershipStatusInvited)

	got, err := repo.ListActiveUserIDs(ctx, tenant.ID, enums.MemberRoleOwner, enums.MemberRoleManager)
	if err != nil {
		t.Fatalf("list owners and managers: %v", err)
	}
	assertIDs(t, got, owner, manager)

	got, err = repo.ListActiveUserIDs(ctx, tenant.ID, enums.MemberRoleOwner, enums.MemberRoleManager, enums.MemberRoleStaff)
	if err != nil {
		t.Fatalf("list all roles: %v", err)
	}
	assertIDs(t, got, owner, manager, staff)

	got, err = repo.ListActiveUserIDs(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("list with no roles: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result without roles, got %d ids", len(got))
	}
}

func assertIDs(t *testing.T, got []uuid.UUID, want ...uuid.UUID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	seen := make(map[uuid.UUID]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			t.Errorf("missing expected id %s", id)
		}
	}
}
