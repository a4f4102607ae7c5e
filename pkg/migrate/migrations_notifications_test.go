package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNotificationsMigrationContainsDedupeIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_notifications.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no notifications migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_dedupe_key",
		"WHERE dedupe_key IS NOT NULL",
		"emailed_at TIMESTAMPTZ",
		"DROP TABLE IF EXISTS notifications",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPreferencesMigrationBoundsDigestHour(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_schedules_and_preferences.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no schedules migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CHECK (digest_hour BETWEEN 0 AND 23)",
		"UNIQUE (tenant_id, user_id)",
		"recipients_mode recipients_mode NOT NULL DEFAULT 'owners_managers'",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
