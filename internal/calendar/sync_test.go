package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// mockBookingStore is an in-memory BookingStore.
type mockBookingStore struct {
	bookings map[string]*models.Booking
	nextID   int
}

func newMockBookingStore() *mockBookingStore {
	return &mockBookingStore{bookings: make(map[string]*models.Booking)}
}

func (m *mockBookingStore) Create(ctx context.Context, b *models.Booking) error {
	m.nextID++
	b.ID = fmt.Sprintf("bk-%d", m.nextID)
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *mockBookingStore) Update(ctx context.Context, b *models.Booking) error {
	if _, ok := m.bookings[b.ID]; !ok {
		return fmt.Errorf("booking %s not found", b.ID)
	}
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *mockBookingStore) GetBySourceUID(ctx context.Context, propertyID string, platform models.Platform, uid string) (*models.Booking, error) {
	var tombstoned *models.Booking
	for _, b := range m.bookings {
		if b.PropertyID != propertyID || b.Platform != platform {
			continue
		}
		if b.SourceEventUID == nil || *b.SourceEventUID != uid {
			continue
		}
		if !b.RemovedFromSource {
			copied := *b
			return &copied, nil
		}
		copied := *b
		tombstoned = &copied
	}
	return tombstoned, nil
}

func (m *mockBookingStore) GetByIdentityKey(ctx context.Context, key models.IdentityKey) (*models.Booking, error) {
	var tombstoned *models.Booking
	for _, b := range m.bookings {
		k := b.Key()
		if k.PropertyID != key.PropertyID || k.Platform != key.Platform ||
			!k.CheckIn.Equal(key.CheckIn) || !k.CheckOut.Equal(key.CheckOut) {
			continue
		}
		if !b.RemovedFromSource {
			copied := *b
			return &copied, nil
		}
		copied := *b
		tombstoned = &copied
	}
	return tombstoned, nil
}

func (m *mockBookingStore) ListActiveForFeed(ctx context.Context, propertyID string, platform models.Platform) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.bookings {
		if b.PropertyID == propertyID && b.Platform == platform && !b.RemovedFromSource {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingStore) MarkRemovedFromSource(ctx context.Context, id string, at time.Time) error {
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.RemovedFromSource = true
	return nil
}

func (m *mockBookingStore) active() []*models.Booking {
	var out []*models.Booking
	for _, b := range m.bookings {
		if !b.RemovedFromSource {
			out = append(out, b)
		}
	}
	return out
}

// mockPropertyStore serves a fixed property list.
type mockPropertyStore struct {
	properties []models.Property
}

func (m *mockPropertyStore) ListActive(ctx context.Context) ([]models.Property, error) {
	return m.properties, nil
}

func (m *mockPropertyStore) GetByID(ctx context.Context, id string) (*models.Property, error) {
	for i := range m.properties {
		if m.properties[i].ID == id {
			return &m.properties[i], nil
		}
	}
	return nil, nil
}

// mockFetcher serves canned bodies or errors per URL.
type mockFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{bodies: make(map[string][]byte), errs: make(map[string]error)}
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if body, ok := m.bodies[url]; ok {
		return body, nil
	}
	return nil, &FetchError{URL: url, StatusCode: 404}
}

// mockFeedCache is an in-memory FeedCache.
type mockFeedCache struct {
	entries map[string][]byte
}

func newMockFeedCache() *mockFeedCache {
	return &mockFeedCache{entries: make(map[string][]byte)}
}

func (m *mockFeedCache) Put(ctx context.Context, propertyID string, platform models.Platform, body []byte, fetchedAt time.Time) error {
	m.entries[propertyID+"/"+string(platform)] = body
	return nil
}

func (m *mockFeedCache) Get(ctx context.Context, propertyID string, platform models.Platform) ([]byte, time.Time, error) {
	body, ok := m.entries[propertyID+"/"+string(platform)]
	if !ok {
		return nil, time.Time{}, nil
	}
	return body, time.Now().UTC(), nil
}

// mockRunRecorder captures sync run bookkeeping.
type mockRunRecorder struct {
	created  []*models.SyncRun
	finished []*models.SyncRun
}

func (m *mockRunRecorder) Create(ctx context.Context, run *models.SyncRun) error {
	run.ID = fmt.Sprintf("run-%d", len(m.created)+1)
	m.created = append(m.created, run)
	return nil
}

func (m *mockRunRecorder) Finish(ctx context.Context, run *models.SyncRun) error {
	m.finished = append(m.finished, run)
	return nil
}

func feedBody(events ...string) []byte {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\nVERSION:2.0\n")
	for _, e := range events {
		sb.WriteString(e)
	}
	sb.WriteString("END:VCALENDAR\n")
	return []byte(sb.String())
}

func vevent(uid, summary, description, start, end string) string {
	e := "BEGIN:VEVENT\n" +
		"UID:" + uid + "\n" +
		"DTSTART;VALUE=DATE:" + start + "\n" +
		"DTEND;VALUE=DATE:" + end + "\n" +
		"SUMMARY:" + summary + "\n"
	if description != "" {
		e += "DESCRIPTION:" + description + "\n"
	}
	return e + "END:VEVENT\n"
}

func syncTestProperty(feeds ...models.FeedConfig) models.Property {
	return models.Property{
		ID:        "prop-1",
		Name:      "Seaview Cottage",
		BasePrice: 1000,
		Currency:  "ZAR",
		IsActive:  true,
		Feeds:     feeds,
	}
}

func airbnbFeed() models.FeedConfig {
	return models.FeedConfig{
		PropertyID: "prop-1",
		Platform:   models.PlatformAirbnb,
		ICalURL:    "https://airbnb.test/cal.ics",
		IsActive:   true,
	}
}

func newTestEngine(store *mockBookingStore, props *mockPropertyStore, cache FeedCache, runs RunRecorder, fetcher FeedFetcher, opts Options) *Engine {
	e := NewEngine(store, props, cache, runs, fetcher, opts)
	e.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestSyncPropertyCreatesBookings(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	fetcher.bodies["https://airbnb.test/cal.ics"] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
		vevent("uid-2", "Reserved - HMABCDEFGH12", "", "20250401", "20250403"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})

	result := engine.SyncProperty(context.Background(), &property)

	if result.Created != 2 || result.Updated != 0 || result.Processed != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	active := store.active()
	if len(active) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(active))
	}
	for _, b := range active {
		if b.Platform != models.PlatformAirbnb {
			t.Errorf("Platform = %s", b.Platform)
		}
		if b.Status != models.BookingStatusConfirmed {
			t.Errorf("Status = %s", b.Status)
		}
		if b.LastSyncedAt == nil {
			t.Errorf("LastSyncedAt not set")
		}
	}
}

func TestSyncPropertyIdempotent(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	fetcher.bodies["https://airbnb.test/cal.ics"] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})

	engine.SyncProperty(context.Background(), &property)
	second := engine.SyncProperty(context.Background(), &property)

	if second.Created != 0 || second.Updated != 1 {
		t.Fatalf("second run = %+v", second)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected 1 booking after rerun, got %d", len(store.bookings))
	}
}

func TestFailedFetchNeverTombstones(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	delete(fetcher.bodies, url)
	fetcher.errs[url] = &FetchError{URL: url, Err: errors.New("connection refused")}

	result := engine.SyncProperty(context.Background(), &property)

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if result.Removed != 0 {
		t.Errorf("Removed = %d after failed fetch", result.Removed)
	}
	if len(store.active()) != 1 {
		t.Errorf("booking was tombstoned after a failed fetch")
	}
}

func TestEmptySuccessfulFeedTombstones(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	// The guest cancelled: the feed now legitimately contains no events.
	fetcher.bodies[url] = feedBody()

	result := engine.SyncProperty(context.Background(), &property)

	if result.Removed != 1 {
		t.Fatalf("Removed = %d, want 1", result.Removed)
	}
	if len(store.active()) != 0 {
		t.Errorf("booking still active after empty feed")
	}
	for _, b := range store.bookings {
		if !b.RemovedFromSource {
			t.Errorf("booking not flagged removed_from_source")
		}
		if b.Status != models.BookingStatusConfirmed {
			t.Errorf("tombstoning changed status to %s", b.Status)
		}
	}
}

func TestTombstonedBookingRevived(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	body := feedBody(vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"))
	fetcher.bodies[url] = body

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})

	engine.SyncProperty(context.Background(), &property)
	fetcher.bodies[url] = feedBody()
	engine.SyncProperty(context.Background(), &property)
	fetcher.bodies[url] = body

	result := engine.SyncProperty(context.Background(), &property)

	if result.Updated != 1 || result.Created != 0 {
		t.Fatalf("revival result = %+v", result)
	}
	if len(store.active()) != 1 {
		t.Errorf("tombstoned booking was not revived")
	}
}

func TestDegradedFallbackReplaysCache(t *testing.T) {
	store := newMockBookingStore()
	cache := newMockFeedCache()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, cache, nil, fetcher, Options{DegradedFallback: true})
	engine.SyncProperty(context.Background(), &property)

	delete(fetcher.bodies, url)
	fetcher.errs[url] = &FetchError{URL: url, Err: errors.New("timeout")}

	result := engine.SyncProperty(context.Background(), &property)

	if !result.Degraded {
		t.Fatal("result not flagged degraded")
	}
	if len(result.Errors) != 1 {
		t.Errorf("fetch error should still be reported, got %v", result.Errors)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1 from cached replay", result.Updated)
	}
	if result.Removed != 0 {
		t.Errorf("a replayed feed must never tombstone, Removed = %d", result.Removed)
	}
}

func TestDegradedFallbackDisabledByDefault(t *testing.T) {
	store := newMockBookingStore()
	cache := newMockFeedCache()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, cache, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	delete(fetcher.bodies, url)
	fetcher.errs[url] = &FetchError{URL: url, Err: errors.New("timeout")}

	result := engine.SyncProperty(context.Background(), &property)

	if result.Degraded {
		t.Error("degraded replay ran without opt-in")
	}
	if result.Updated != 0 {
		t.Errorf("Updated = %d, want 0", result.Updated)
	}
}

func TestReissuedUIDMatchesByIdentityKey(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-old", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	// Same reservation, fresh UID on re-export.
	fetcher.bodies[url] = feedBody(
		vevent("uid-new", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	result := engine.SyncProperty(context.Background(), &property)

	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("result = %+v", result)
	}
	active := store.active()
	if len(active) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(active))
	}
	if active[0].SourceEventUID == nil || *active[0].SourceEventUID != "uid-new" {
		t.Errorf("SourceEventUID = %v, want uid-new", active[0].SourceEventUID)
	}
}

func TestUpdatePreservesStatusAndGuestName(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	// Guest checked in between syncs.
	for _, b := range store.bookings {
		b.Status = models.BookingStatusCheckedIn
	}

	// The feed degraded to a bare confirmation code for the same dates.
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Reserved - HMABCDEFGH12", "", "20250310", "20250314"),
	)
	engine.SyncProperty(context.Background(), &property)

	for _, b := range store.bookings {
		if b.Status != models.BookingStatusCheckedIn {
			t.Errorf("reconciliation changed status to %s", b.Status)
		}
		if b.Guest.FirstName != "Thomas" || b.Guest.LastName != "Speranta" {
			t.Errorf("real guest name replaced with %q %q", b.Guest.FirstName, b.Guest.LastName)
		}
		if b.ReferenceCode == nil || *b.ReferenceCode != "HMABCDEFGH12" {
			t.Errorf("new reference code not applied: %v", b.ReferenceCode)
		}
	}
}

func TestConfiguredPlatformIsAuthoritative(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://feeds.test/bookingcom.ics"
	// The summary mentions Airbnb, but the feed is configured as booking.com.
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Booking.com - John Smith (Airbnb)", "", "20250310", "20250312"),
	)

	property := syncTestProperty(models.FeedConfig{
		PropertyID: "prop-1",
		Platform:   models.PlatformBookingCom,
		ICalURL:    url,
		IsActive:   true,
	})
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	active := store.active()
	if len(active) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(active))
	}
	if active[0].Platform != models.PlatformBookingCom {
		t.Errorf("Platform = %s, want %s", active[0].Platform, models.PlatformBookingCom)
	}
}

func TestDirectFeedSniffsPlatform(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://generic.test/all.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-1", "Booking.com - John Smith", "", "20250310", "20250312"),
		vevent("uid-2", "Mike Jones", "", "20250401", "20250403"),
	)

	property := syncTestProperty(models.FeedConfig{
		PropertyID: "prop-1",
		Platform:   models.PlatformDirect,
		ICalURL:    url,
		IsActive:   true,
	})
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})
	engine.SyncProperty(context.Background(), &property)

	platforms := make(map[models.Platform]int)
	for _, b := range store.active() {
		platforms[b.Platform]++
	}
	if platforms[models.PlatformBookingCom] != 1 || platforms[models.PlatformDirect] != 1 {
		t.Errorf("platforms = %v", platforms)
	}
}

func TestInvalidSpanSkipped(t *testing.T) {
	store := newMockBookingStore()
	fetcher := newMockFetcher()
	url := "https://airbnb.test/cal.ics"
	fetcher.bodies[url] = feedBody(
		vevent("uid-zero", "Jane Doe", "", "20250310", "20250310"),
		vevent("uid-ok", "John Smith", "", "20250401", "20250403"),
	)

	property := syncTestProperty(airbnbFeed())
	engine := newTestEngine(store, &mockPropertyStore{}, nil, nil, fetcher, Options{})

	result := engine.SyncProperty(context.Background(), &property)

	if result.Skipped != 1 || result.Created != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestSyncAllRecordsRun(t *testing.T) {
	store := newMockBookingStore()
	runs := &mockRunRecorder{}
	fetcher := newMockFetcher()
	fetcher.bodies["https://airbnb.test/cal.ics"] = feedBody(
		vevent("uid-1", "Thomas Speranta (Airbnb)", "", "20250310", "20250314"),
	)

	props := &mockPropertyStore{properties: []models.Property{
		syncTestProperty(airbnbFeed()),
		{ID: "prop-2", Name: "No Feeds", IsActive: true},
	}}
	engine := newTestEngine(store, props, nil, runs, fetcher, Options{})

	results, err := engine.SyncAll(context.Background(), models.SyncTriggerScheduled)
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if len(runs.created) != 1 || len(runs.finished) != 1 {
		t.Fatalf("run bookkeeping: created=%d finished=%d", len(runs.created), len(runs.finished))
	}
	run := runs.finished[0]
	if run.Trigger != models.SyncTriggerScheduled {
		t.Errorf("Trigger = %q", run.Trigger)
	}
	if run.Properties != 2 || run.Created != 1 {
		t.Errorf("run counters = %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
}

func TestSyncPropertyByIDUnknown(t *testing.T) {
	engine := newTestEngine(newMockBookingStore(), &mockPropertyStore{}, nil, nil, newMockFetcher(), Options{})

	result, err := engine.SyncPropertyByID(context.Background(), "missing", models.SyncTriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result for unknown property, got %+v", result)
	}
}
