package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/internal/risk"
	"github.com/prepdeckhq/prepdeck-backend/internal/schedule"
	"github.com/prepdeckhq/prepdeck-backend/pkg/config"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	dbtypes "github.com/prepdeckhq/prepdeck-backend/pkg/db/types"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// fakeStore backs every engine store interface with in-memory maps.
type fakeStore struct {
	mu sync.Mutex

	tenants       map[uuid.UUID]*models.Tenant
	users         map[uuid.UUID]*models.User
	sessions      map[uuid.UUID][]models.InventorySession
	items         map[uuid.UUID][]models.SessionItem
	reminderRows  []models.Reminder
	prefs         map[string]*models.NotificationPreference
	policies      map[uuid.UUID]*models.AlertPolicy
	digestSubs    []models.NotificationPreference
	notifications []*models.Notification

	latestErr map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:   make(map[uuid.UUID]*models.Tenant),
		users:     make(map[uuid.UUID]*models.User),
		sessions:  make(map[uuid.UUID][]models.InventorySession),
		items:     make(map[uuid.UUID][]models.SessionItem),
		prefs:     make(map[string]*models.NotificationPreference),
		policies:  make(map[uuid.UUID]*models.AlertPolicy),
		latestErr: make(map[uuid.UUID]error),
	}
}

func prefKey(tenantID, userID uuid.UUID) string {
	return tenantID.String() + ":" + userID.String()
}

func (f *fakeStore) ListTenantIDsWithApprovedSessions(context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(f.sessions))
	for id := range f.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) LatestApprovedSessions(_ context.Context, tenantID uuid.UUID) ([]models.InventorySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.latestErr[tenantID]; err != nil {
		return nil, err
	}
	return f.sessions[tenantID], nil
}

func (f *fakeStore) ListSessionItems(_ context.Context, sessionID uuid.UUID) ([]models.SessionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[sessionID], nil
}

func (f *fakeStore) ListEnabled(context.Context) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminderRows, nil
}

func (f *fakeStore) GetForUser(_ context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[prefKey(tenantID, userID)], nil
}

func (f *fakeStore) ListDigestSubscribed(context.Context) ([]models.NotificationPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.digestSubs, nil
}

func (f *fakeStore) GetAlertPolicy(_ context.Context, tenantID uuid.UUID) (*models.AlertPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policies[tenantID], nil
}

func (f *fakeStore) CreateDeduped(_ context.Context, notification *models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if notification.DedupeKey != nil {
		for _, existing := range f.notifications {
			if existing.DedupeKey != nil && *existing.DedupeKey == *notification.DedupeKey {
				return false, nil
			}
		}
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	f.notifications = append(f.notifications, notification)
	return true, nil
}

func (f *fakeStore) ExistsSince(_ context.Context, tenantID, userID uuid.UUID, kind enums.NotificationType, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.TenantID == tenantID && n.UserID == userID && n.Type == kind && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListPendingDigest(_ context.Context, tenantID, userID uuid.UUID, since time.Time) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []models.Notification
	for _, n := range f.notifications {
		if n.TenantID == tenantID && n.UserID == userID && n.EmailedAt == nil && !n.CreatedAt.Before(since) {
			pending = append(pending, *n)
		}
	}
	return pending, nil
}

func (f *fakeStore) MarkEmailed(_ context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, id := range ids {
		for _, n := range f.notifications {
			if n.ID == id && n.EmailedAt == nil {
				at := now
				n.EmailedAt = &at
				updated++
			}
		}
	}
	return updated, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("user not found")
}

// tenantGetter adapts the fake store to the tenant lookup interface; the user
// lookup already occupies GetByID on fakeStore.
type tenantGetter struct {
	store *fakeStore
}

func (t tenantGetter) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if tenant, ok := t.store.tenants[id]; ok {
		return tenant, nil
	}
	return nil, errors.New("tenant not found")
}

type fakeResolver struct {
	byTenant map[uuid.UUID][]uuid.UUID
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, tenantID uuid.UUID, mode enums.RecipientsMode, custom []uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	if mode == enums.RecipientsCustom && len(custom) > 0 {
		return custom, nil
	}
	return f.byTenant[tenantID], nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func sessionItem(sessionID uuid.UUID, name string, stock, par int64) models.SessionItem {
	return models.SessionItem{
		ID:           uuid.New(),
		SessionID:    sessionID,
		ItemName:     name,
		CurrentStock: decimal.NewFromInt(stock),
		ParLevel:     decimal.NewFromInt(par),
	}
}

type engineFixture struct {
	store    *fakeStore
	resolver *fakeResolver
	mail     *fakeMailer
	engine   *Engine
}

func newEngineFixture(t *testing.T, now time.Time) *engineFixture {
	t.Helper()

	store := newFakeStore()
	resolver := &fakeResolver{byTenant: make(map[uuid.UUID][]uuid.UUID)}
	mail := &fakeMailer{}

	engine, err := NewEngine(Params{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Inventory:     store,
		Reminders:     store,
		Preferences:   store,
		Notifications: store,
		Users:         store,
		Tenants:       tenantGetter{store: store},
		Resolver:      resolver,
		Scheduler:     schedule.NewScheduler(4),
		Mailer:        mail,
		Config: config.DispatchConfig{
			WorkerLimit:   2,
			DigestWindow:  24 * time.Hour,
			MaxAlertItems: 5,
		},
		Now: func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &engineFixture{store: store, resolver: resolver, mail: mail, engine: engine}
}

func (fx *engineFixture) seedTenant(t *testing.T, name string) (uuid.UUID, uuid.UUID) {
	t.Helper()

	tenantID := uuid.New()
	fx.store.tenants[tenantID] = &models.Tenant{ID: tenantID, Name: name, Timezone: "America/New_York"}
	userID := uuid.New()
	fx.store.users[userID] = &models.User{ID: userID, Email: fmt.Sprintf("owner-%s@example.com", userID.String()[:8])}
	fx.resolver.byTenant[tenantID] = []uuid.UUID{userID}
	return tenantID, userID
}

func (fx *engineFixture) seedApprovedSession(tenantID uuid.UUID, items ...models.SessionItem) uuid.UUID {
	sessionID := uuid.New()
	approvedAt := time.Now().UTC()
	fx.store.sessions[tenantID] = append(fx.store.sessions[tenantID], models.InventorySession{
		ID:         sessionID,
		TenantID:   tenantID,
		Status:     enums.SessionStatusApproved,
		ApprovedAt: &approvedAt,
	})
	for i := range items {
		items[i].SessionID = sessionID
	}
	fx.store.items[sessionID] = items
	return sessionID
}

func TestAlertsPassSingleTenantDefaults(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, userID := fx.seedTenant(t, "Harbor Grill")
	fx.seedApprovedSession(tenantID,
		sessionItem(uuid.Nil, "Milk", 2, 10),
		sessionItem(uuid.Nil, "Bread", 12, 10),
	)

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.AlertsDispatched != 1 {
		t.Fatalf("expected 1 alert dispatched, got %d", summary.AlertsDispatched)
	}
	if len(fx.store.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(fx.store.notifications))
	}

	notification := fx.store.notifications[0]
	if notification.TenantID != tenantID || notification.UserID != userID {
		t.Errorf("notification addressed to wrong recipient: %+v", notification)
	}
	if notification.Severity != enums.SeverityCritical {
		t.Errorf("severity = %s, want critical", notification.Severity)
	}
	if notification.Type != enums.NotificationTypeLowStock {
		t.Errorf("type = %s, want low_stock", notification.Type)
	}

	var payload struct {
		Items []risk.EvaluatedItem `json:"items"`
	}
	if err := json.Unmarshal(notification.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].ItemName != "Milk" || payload.Items[0].Risk != enums.RiskRed {
		t.Errorf("payload must contain only the red Milk item, got %+v", payload.Items)
	}

	// Default preferences send an immediate email alongside the in-app row.
	if fx.mail.sentCount() != 1 {
		t.Errorf("expected 1 immediate email, got %d", fx.mail.sentCount())
	}
}

func TestAlertsPassIdempotentWithinDay(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, _ := fx.seedTenant(t, "Harbor Grill")
	fx.seedApprovedSession(tenantID, sessionItem(uuid.Nil, "Milk", 2, 10))

	if _, err := fx.engine.RunTick(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}

	if summary.AlertsDispatched != 0 {
		t.Errorf("second tick dispatched %d alerts, want 0", summary.AlertsDispatched)
	}
	if len(fx.store.notifications) != 1 {
		t.Errorf("expected exactly 1 notification after two ticks, got %d", len(fx.store.notifications))
	}
	if fx.mail.sentCount() != 1 {
		t.Errorf("expected exactly 1 email after two ticks, got %d", fx.mail.sentCount())
	}
}

func TestAlertsPassSeverityOptOut(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, userID := fx.seedTenant(t, "Harbor Grill")
	// Only a yellow item; the default preference ignores yellow.
	fx.seedApprovedSession(tenantID, sessionItem(uuid.Nil, "Eggs", 6, 10))

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.AlertsDispatched != 0 {
		t.Errorf("expected no alert for yellow-only items under defaults, got %d", summary.AlertsDispatched)
	}

	// Opting into yellow makes the same evaluation alert.
	on := true
	fx.store.prefs[prefKey(tenantID, userID)] = &models.NotificationPreference{
		TenantID:       tenantID,
		UserID:         userID,
		LowStockYellow: &on,
	}
	summary, err = fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if summary.AlertsDispatched != 1 {
		t.Errorf("expected yellow opt-in to alert, got %d", summary.AlertsDispatched)
	}
	if fx.store.notifications[0].Severity != enums.SeverityWarning {
		t.Errorf("yellow-only alert severity = %s, want warning", fx.store.notifications[0].Severity)
	}
}

func TestAlertsPassEmailFailureKeepsNotification(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, _ := fx.seedTenant(t, "Harbor Grill")
	fx.seedApprovedSession(tenantID, sessionItem(uuid.Nil, "Milk", 2, 10))
	fx.mail.err = errors.New("smtp unavailable")

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.AlertsDispatched != 1 {
		t.Errorf("expected in-app alert despite email failure, got %d", summary.AlertsDispatched)
	}
	if len(fx.store.notifications) != 1 {
		t.Errorf("expected persisted notification, got %d", len(fx.store.notifications))
	}
}

func TestAlertsPassIsolatesTenantFailures(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)

	badTenant, _ := fx.seedTenant(t, "Broken Bistro")
	fx.seedApprovedSession(badTenant, sessionItem(uuid.Nil, "Milk", 2, 10))
	fx.store.latestErr[badTenant] = errors.New("connection reset")

	goodTenant, _ := fx.seedTenant(t, "Harbor Grill")
	fx.seedApprovedSession(goodTenant, sessionItem(uuid.Nil, "Flour", 1, 10))

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.AlertsDispatched != 1 {
		t.Errorf("expected healthy tenant to alert despite sibling failure, got %d", summary.AlertsDispatched)
	}
	foundFailure := false
	for _, result := range summary.Results {
		if strings.Contains(result, "1 units failed") {
			foundFailure = true
		}
	}
	if !foundFailure {
		t.Errorf("expected unit failure recorded in results: %v", summary.Results)
	}
}

func TestRemindersPassFiresInsideWindow(t *testing.T) {
	// Monday 14:02 UTC is 09:02 in New York during winter.
	now := time.Date(2026, 1, 5, 14, 2, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, userID := fx.seedTenant(t, "Harbor Grill")

	reminderID := uuid.New()
	fx.store.reminderRows = []models.Reminder{{
		ID:             reminderID,
		TenantID:       tenantID,
		Name:           "Weekly walk-in count",
		Days:           dbtypes.WeekdaySet{enums.WeekdayMonday},
		TimeOfDay:      "09:00",
		Timezone:       "America/New_York",
		Enabled:        true,
		RecipientsMode: enums.RecipientsOwnersManagers,
	}}

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.RemindersDispatched != 1 {
		t.Fatalf("expected 1 reminder dispatched, got %d", summary.RemindersDispatched)
	}

	notification := fx.store.notifications[0]
	if notification.Type != enums.NotificationTypeReminder || notification.Severity != enums.SeverityInfo {
		t.Errorf("unexpected notification: %+v", notification)
	}
	if notification.UserID != userID {
		t.Errorf("reminder addressed to %s, want %s", notification.UserID, userID)
	}
	var payload struct {
		ReminderID uuid.UUID `json:"reminder_id"`
	}
	if err := json.Unmarshal(notification.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ReminderID != reminderID {
		t.Errorf("payload reminder id = %s, want %s", payload.ReminderID, reminderID)
	}
	if fx.mail.sentCount() != 1 {
		t.Errorf("expected immediate reminder email, got %d", fx.mail.sentCount())
	}
}

func TestRemindersPassOutsideWindow(t *testing.T) {
	// 14:06 UTC is outside the four minute tolerance for 09:00 New York.
	now := time.Date(2026, 1, 5, 14, 6, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, _ := fx.seedTenant(t, "Harbor Grill")

	fx.store.reminderRows = []models.Reminder{{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "Weekly walk-in count",
		Days:      dbtypes.WeekdaySet{enums.WeekdayMonday},
		TimeOfDay: "09:00",
		Timezone:  "America/New_York",
		Enabled:   true,
	}}

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.RemindersDispatched != 0 {
		t.Errorf("expected no reminder outside tolerance, got %d", summary.RemindersDispatched)
	}
	if len(fx.store.notifications) != 0 {
		t.Errorf("expected no notifications, got %d", len(fx.store.notifications))
	}
}

func TestDigestPassSendsOnceAndMarksEmailed(t *testing.T) {
	// 13:02 UTC is 08:02 in New York during winter; digest hour 8 is due.
	now := time.Date(2026, 1, 5, 13, 2, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, userID := fx.seedTenant(t, "Harbor Grill")

	for _, title := range []string{"Low stock alert", "Inventory reminder"} {
		fx.store.notifications = append(fx.store.notifications, &models.Notification{
			ID:        uuid.New(),
			TenantID:  tenantID,
			UserID:    userID,
			Type:      enums.NotificationTypeLowStock,
			Title:     title,
			Message:   title + " detail",
			CreatedAt: now.Add(-3 * time.Hour),
		})
	}
	fx.store.digestSubs = []models.NotificationPreference{{
		TenantID:        tenantID,
		UserID:          userID,
		EmailDigestMode: enums.DigestModeDaily,
		DigestHour:      8,
		DigestTimezone:  "America/New_York",
	}}

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.DigestsSent != 1 {
		t.Fatalf("expected 1 digest sent, got %d", summary.DigestsSent)
	}
	if fx.mail.sentCount() != 1 {
		t.Fatalf("expected 1 digest email, got %d", fx.mail.sentCount())
	}
	for _, want := range []string{"Low stock alert", "Inventory reminder"} {
		if !strings.Contains(fx.mail.sent[0].body, want) {
			t.Errorf("digest body missing %q", want)
		}
	}
	for _, n := range fx.store.notifications {
		if n.EmailedAt == nil {
			t.Errorf("notification %s not marked emailed", n.ID)
		}
	}

	// Re-running immediately sends nothing further.
	summary, err = fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if summary.DigestsSent != 0 || fx.mail.sentCount() != 1 {
		t.Errorf("expected no further digests, got sent=%d emails=%d", summary.DigestsSent, fx.mail.sentCount())
	}
}

func TestDigestPassSendFailureLeavesPending(t *testing.T) {
	now := time.Date(2026, 1, 5, 13, 2, 0, 0, time.UTC)
	fx := newEngineFixture(t, now)
	tenantID, userID := fx.seedTenant(t, "Harbor Grill")

	fx.store.notifications = append(fx.store.notifications, &models.Notification{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      enums.NotificationTypeLowStock,
		Title:     "Low stock alert",
		Message:   "Milk is low",
		CreatedAt: now.Add(-2 * time.Hour),
	})
	fx.store.digestSubs = []models.NotificationPreference{{
		TenantID:        tenantID,
		UserID:          userID,
		EmailDigestMode: enums.DigestModeDaily,
		DigestHour:      8,
		DigestTimezone:  "America/New_York",
	}}
	fx.mail.err = errors.New("smtp unavailable")

	summary, err := fx.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if summary.DigestsSent != 0 {
		t.Errorf("expected no digest counted on send failure, got %d", summary.DigestsSent)
	}
	if fx.store.notifications[0].EmailedAt != nil {
		t.Error("failed send must not mark the notification emailed")
	}
}

func TestAlertMessageOverflow(t *testing.T) {
	items := make([]risk.EvaluatedItem, 0, 7)
	for _, name := range []string{"Milk", "Eggs", "Flour", "Butter", "Yeast", "Salt", "Sugar"} {
		items = append(items, risk.EvaluatedItem{ItemName: name})
	}

	message := alertMessage(items, 5)
	if !strings.Contains(message, "Milk, Eggs, Flour, Butter, Yeast") {
		t.Errorf("message missing leading names: %q", message)
	}
	if !strings.Contains(message, "and 2 more") {
		t.Errorf("message missing overflow count: %q", message)
	}

	short := alertMessage(items[:2], 5)
	if strings.Contains(short, "more") {
		t.Errorf("short message must not mention overflow: %q", short)
	}
}
