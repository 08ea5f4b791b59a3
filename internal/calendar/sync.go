package calendar

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// BookingStore is the persistence port the engine writes bookings through.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	GetBySourceUID(ctx context.Context, propertyID string, platform models.Platform, uid string) (*models.Booking, error)
	GetByIdentityKey(ctx context.Context, key models.IdentityKey) (*models.Booking, error)
	ListActiveForFeed(ctx context.Context, propertyID string, platform models.Platform) ([]models.Booking, error)
	MarkRemovedFromSource(ctx context.Context, id string, at time.Time) error
}

// PropertyStore lists the properties and feed configs the engine iterates.
type PropertyStore interface {
	ListActive(ctx context.Context) ([]models.Property, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

// FeedCache stores last-good feed bodies for degraded-mode replay.
type FeedCache interface {
	Put(ctx context.Context, propertyID string, platform models.Platform, body []byte, fetchedAt time.Time) error
	Get(ctx context.Context, propertyID string, platform models.Platform) ([]byte, time.Time, error)
}

// RunRecorder persists reconciliation run bookkeeping.
type RunRecorder interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Finish(ctx context.Context, run *models.SyncRun) error
}

// Options tune engine behavior.
type Options struct {
	// FetchConcurrency caps how many feed GETs run at once. Zero means 4.
	FetchConcurrency int
	// DegradedFallback, when enabled, replays the last good cached feed
	// body if a live fetch fails. A replayed feed never tombstones.
	DegradedFallback bool
}

// Engine reconciles stored bookings against their source iCal feeds.
//
// Feed fetches run concurrently with a capped limit; everything after the
// fetch, including every upsert, runs on the calling goroutine so writes to
// one identity key are serialized by construction. Re-running the engine is
// always safe: same-key upserts converge.
type Engine struct {
	bookings   BookingStore
	properties PropertyStore
	cache      FeedCache
	runs       RunRecorder
	fetcher    FeedFetcher
	parser     *Parser
	opts       Options
	now        func() time.Time
}

// NewEngine creates a reconciliation engine. cache and runs may be nil, in
// which case degraded fallback and run bookkeeping are disabled.
func NewEngine(bookings BookingStore, properties PropertyStore, cache FeedCache, runs RunRecorder, fetcher FeedFetcher, opts Options) *Engine {
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	return &Engine{
		bookings:   bookings,
		properties: properties,
		cache:      cache,
		runs:       runs,
		fetcher:    fetcher,
		parser:     NewParser(),
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type fetchedFeed struct {
	feed     models.FeedConfig
	body     []byte
	degraded bool
	fetchErr error
}

// SyncProperty reconciles every active feed of one property. When platforms
// is non-empty, only those feeds are synced. Per-feed failures are recorded
// in the result and never abort the remaining feeds.
func (e *Engine) SyncProperty(ctx context.Context, property *models.Property, platforms ...models.Platform) models.SyncResult {
	result := models.SyncResult{
		PropertyID:   property.ID,
		PropertyName: property.Name,
		SyncedAt:     e.now(),
	}

	feeds := property.ActiveFeeds()
	if len(platforms) > 0 {
		feeds = filterFeeds(feeds, platforms)
	}
	if len(feeds) == 0 {
		return result
	}

	for _, ff := range e.fetchFeeds(ctx, property.ID, feeds) {
		e.syncFeed(ctx, property, ff, &result)
	}

	return result
}

// fetchFeeds pulls all feed bodies with capped concurrency. Failures are
// data, not errors: each slot carries its own outcome.
func (e *Engine) fetchFeeds(ctx context.Context, propertyID string, feeds []models.FeedConfig) []fetchedFeed {
	results := make([]fetchedFeed, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.FetchConcurrency)
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			body, err := e.fetcher.Fetch(gctx, feed.ICalURL)
			results[i] = fetchedFeed{feed: feed, body: body, fetchErr: err}

			if err != nil && e.opts.DegradedFallback && e.cache != nil {
				cached, fetchedAt, cerr := e.cache.Get(gctx, propertyID, feed.Platform)
				if cerr != nil {
					log.Printf("Feed cache read failed for %s/%s: %v", propertyID, feed.Platform, cerr)
				} else if cached != nil {
					log.Printf("Degraded mode: replaying %s feed for property %s cached at %s",
						feed.Platform, propertyID, fetchedAt.Format(time.RFC3339))
					results[i].body = cached
					results[i].degraded = true
				}
			}
			return nil
		})
	}
	g.Wait()

	return results
}

// syncFeed processes one fetched feed: parse, extract, normalize, dedupe,
// upsert, then reconcile removals — the last step only after a live
// successful fetch, so a transient network failure can never mass-tombstone.
func (e *Engine) syncFeed(ctx context.Context, property *models.Property, ff fetchedFeed, result *models.SyncResult) {
	feed := ff.feed

	if ff.fetchErr != nil {
		result.Errors = append(result.Errors, models.FeedSyncError{
			PropertyID: property.ID,
			Platform:   feed.Platform,
			FeedURL:    feed.ICalURL,
			Message:    ff.fetchErr.Error(),
		})
		if !ff.degraded {
			return
		}
		result.Degraded = true
	}

	events, err := e.parser.ParseBytes(ff.body)
	if err != nil {
		result.Errors = append(result.Errors, models.FeedSyncError{
			PropertyID: property.ID,
			Platform:   feed.Platform,
			FeedURL:    feed.ICalURL,
			Message:    err.Error(),
		})
		return
	}

	if !ff.degraded && e.cache != nil {
		if err := e.cache.Put(ctx, property.ID, feed.Platform, ff.body, e.now()); err != nil {
			log.Printf("Feed cache write failed for %s/%s: %v", property.ID, feed.Platform, err)
		}
	}

	var drafts []Draft
	for _, event := range events {
		result.Processed++

		platform := feed.Platform
		if platform == models.PlatformDirect || platform == models.PlatformDomestic {
			// Generic feeds are the only place text sniffing applies; a
			// configured platform is authoritative.
			platform = DetectPlatform(feed.ICalURL, event.Summary, event.Description)
		}

		info := ExtractGuestInfo(event.Summary, event.Description, platform)
		draft, err := Normalize(event, info, property, platform)
		if err != nil {
			result.Skipped++
			log.Printf("Dropping event from %s feed of %q: %v", feed.Platform, property.Name, err)
			continue
		}
		drafts = append(drafts, draft)
	}

	drafts = Dedupe(drafts)

	seen := make(map[models.IdentityKey]bool, len(drafts))
	for _, draft := range drafts {
		seen[draft.Booking.Key()] = true

		created, err := e.upsertDraft(ctx, draft)
		if err != nil {
			upsertErr := &UpsertError{Key: draft.Booking.Key(), Err: err}
			log.Printf("Upsert failed for %q: %v", property.Name, upsertErr)
			result.Errors = append(result.Errors, models.FeedSyncError{
				PropertyID: property.ID,
				Platform:   feed.Platform,
				FeedURL:    feed.ICalURL,
				Message:    upsertErr.Error(),
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if !ff.degraded {
		removed, err := e.reconcileRemovals(ctx, property.ID, feed.Platform, seen)
		if err != nil {
			result.Errors = append(result.Errors, models.FeedSyncError{
				PropertyID: property.ID,
				Platform:   feed.Platform,
				FeedURL:    feed.ICalURL,
				Message:    err.Error(),
			})
		}
		result.Removed += removed
	}
}

// upsertDraft writes one draft, matching an existing booking by source event
// UID first (stable across date-shifted re-imports) and identity key second
// (stable across feeds that reissue UIDs).
func (e *Engine) upsertDraft(ctx context.Context, draft Draft) (created bool, err error) {
	b := draft.Booking

	var existing *models.Booking
	if b.SourceEventUID != nil {
		existing, err = e.bookings.GetBySourceUID(ctx, b.PropertyID, b.Platform, *b.SourceEventUID)
		if err != nil {
			return false, err
		}
	}
	if existing == nil {
		existing, err = e.bookings.GetByIdentityKey(ctx, b.Key())
		if err != nil {
			return false, err
		}
	}

	now := e.now()

	if existing == nil {
		b.LastSyncedAt = &now
		return true, e.bookings.Create(ctx, &b)
	}

	// Update in place. Status stays untouched: lifecycle transitions belong
	// to the check-in/check-out workflows, not to feed reconciliation.
	existing.CheckIn = b.CheckIn
	existing.CheckOut = b.CheckOut
	existing.Nights = b.Nights
	existing.BaseAmount = b.BaseAmount
	existing.TotalAmount = b.TotalAmount
	existing.Currency = b.Currency
	existing.SourceEventUID = b.SourceEventUID
	existing.LastSyncedAt = &now
	existing.RemovedFromSource = false
	if b.ReferenceCode != nil {
		existing.ReferenceCode = b.ReferenceCode
	}
	if b.CheckinTimeHint != nil {
		existing.CheckinTimeHint = b.CheckinTimeHint
	}
	// Never replace a real guest name with a placeholder re-extraction.
	if !draft.Info.IsPlaceholder() || existing.Guest.FirstName == PlaceholderFirstName {
		existing.Guest.FirstName = b.Guest.FirstName
		existing.Guest.LastName = b.Guest.LastName
		existing.Guest.Email = b.Guest.Email
	}
	if b.Guest.Phone != nil {
		existing.Guest.Phone = b.Guest.Phone
	}
	if b.Guest.SpecialRequests != "" {
		existing.Guest.SpecialRequests = b.Guest.SpecialRequests
	}

	return false, e.bookings.Update(ctx, existing)
}

// reconcileRemovals tombstones previously active bookings for one feed whose
// identity keys are absent from the latest successful pull. Callers must
// never invoke it after a failed fetch.
func (e *Engine) reconcileRemovals(ctx context.Context, propertyID string, platform models.Platform, seen map[models.IdentityKey]bool) (int, error) {
	active, err := e.bookings.ListActiveForFeed(ctx, propertyID, platform)
	if err != nil {
		return 0, err
	}

	removed := 0
	now := e.now()
	for _, b := range active {
		if seen[b.Key()] {
			continue
		}
		if err := e.bookings.MarkRemovedFromSource(ctx, b.ID, now); err != nil {
			log.Printf("Tombstoning booking %s failed: %v", b.ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// SyncAll reconciles every active property. A property whose entire feed set
// fails never aborts the others; its errors are reported inline. The run is
// recorded for the status surface.
func (e *Engine) SyncAll(ctx context.Context, trigger string) ([]models.SyncResult, error) {
	run := e.startRun(ctx, trigger)

	properties, err := e.properties.ListActive(ctx)
	if err != nil {
		e.finishRun(ctx, run, nil, err)
		return nil, err
	}

	var results []models.SyncResult
	for i := range properties {
		// Cancellation is coarse-grained: between feeds/properties, with
		// already-committed upserts kept.
		if ctx.Err() != nil {
			break
		}
		results = append(results, e.SyncProperty(ctx, &properties[i]))
	}

	e.finishRun(ctx, run, results, nil)
	return results, nil
}

// SyncPropertyByID reconciles a single property, recording a run. Returns an
// error only when the property cannot be loaded.
func (e *Engine) SyncPropertyByID(ctx context.Context, propertyID, trigger string, platforms ...models.Platform) (*models.SyncResult, error) {
	run := e.startRun(ctx, trigger)

	property, err := e.properties.GetByID(ctx, propertyID)
	if err != nil {
		e.finishRun(ctx, run, nil, err)
		return nil, err
	}
	if property == nil {
		e.finishRun(ctx, run, nil, nil)
		return nil, nil
	}

	result := e.SyncProperty(ctx, property, platforms...)
	e.finishRun(ctx, run, []models.SyncResult{result}, nil)
	return &result, nil
}

func (e *Engine) startRun(ctx context.Context, trigger string) *models.SyncRun {
	run := &models.SyncRun{
		Trigger:   trigger,
		StartedAt: e.now(),
	}
	if e.runs != nil {
		if err := e.runs.Create(ctx, run); err != nil {
			log.Printf("Recording sync run failed: %v", err)
		}
	}
	return run
}

func (e *Engine) finishRun(ctx context.Context, run *models.SyncRun, results []models.SyncResult, fatal error) {
	now := e.now()
	run.FinishedAt = &now
	run.Properties = len(results)

	var allErrors []models.FeedSyncError
	for _, r := range results {
		run.Processed += r.Processed
		run.Created += r.Created
		run.Updated += r.Updated
		run.Removed += r.Removed
		allErrors = append(allErrors, r.Errors...)
	}
	run.ErrorCount = len(allErrors)
	if fatal != nil {
		run.ErrorCount++
		msg := fatal.Error()
		run.ErrorDetail = &msg
	} else if len(allErrors) > 0 {
		if detail, err := json.Marshal(allErrors); err == nil {
			s := string(detail)
			run.ErrorDetail = &s
		}
	}

	if e.runs != nil {
		if err := e.runs.Finish(ctx, run); err != nil {
			log.Printf("Finishing sync run failed: %v", err)
		}
	}
}

func filterFeeds(feeds []models.FeedConfig, platforms []models.Platform) []models.FeedConfig {
	want := make(map[models.Platform]bool, len(platforms))
	for _, p := range platforms {
		want[p] = true
	}
	var out []models.FeedConfig
	for _, f := range feeds {
		if want[f.Platform] {
			out = append(out, f)
		}
	}
	return out
}
