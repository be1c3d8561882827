/*
scheduler.go - Automated nightly-charge sweeper

PURPOSE:
  Periodically re-derives the stay set and posts any missing nightly room
  charges for checked-in stays at hotels with auto-posting enabled. Covers
  the nights a desk-initiated posting missed: multi-night stays cross
  midnight between check-in and checkout, and each elapsed night needs its
  charge before the checkout gates evaluate.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Only nights up to and including "today" are posted; future nights wait
    for their own sweep
  - Posting is idempotent (see frontdesk/poster.go), so overlapping sweeps
    and desk-initiated postings are safe

CONFIGURATION:
  - CheckInterval: how often to sweep (default: 1 hour)
  - Enabled: whether the sweeper is active (default: true)

USAGE:
  sweeper := NewPostingScheduler(store, handler)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: PostCharges endpoint (manual posting)
  - frontdesk/poster.go: the idempotent posting core
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// PostingScheduler sweeps checked-in stays for missing nightly charges.
type PostingScheduler struct {
	Store         frontdesk.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPostingScheduler creates a new sweeper over the handler's store.
func NewPostingScheduler(store frontdesk.Store, handler *Handler) *PostingScheduler {
	return &PostingScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (ps *PostingScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	log.Printf("[Sweeper] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the sweeper.
func (ps *PostingScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (ps *PostingScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.sweep()

	for {
		select {
		case <-ps.ticker.C:
			ps.sweep()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PostingScheduler) sweep() {
	ctx := context.Background()
	today := ps.Handler.today()

	nights, err := ps.Store.ListReservations(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error listing reservations: %v", err)
		return
	}
	hotels, err := ps.Store.ListHotels(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error listing hotels: %v", err)
		return
	}

	settingsByHotel := make(map[frontdesk.HotelID]frontdesk.HotelSettings, len(hotels))
	for _, h := range hotels {
		settingsByHotel[h.ID] = frontdesk.SettingsOf(h)
	}

	created := 0
	skippedStays := 0

	stays := frontdesk.GroupIntoStays(nights, hotels, ps.Handler.Loc)
	for i := range stays {
		stay := &stays[i]
		if frontdesk.StateOf(stay) != frontdesk.StateCheckedIn {
			continue
		}

		settings, ok := settingsByHotel[stay.HotelID]
		if !ok || !settings.AutoPostCharges {
			skippedStays++
			continue
		}

		rate := frontdesk.NightlyRate(settings, frontdesk.RoomStateOf(stay.Room))
		if !rate.IsPositive() {
			log.Printf("[Sweeper] No rate configured for stay %s, skipping", stay.Key())
			continue
		}

		// Future nights wait for their own sweep.
		var due []frontdesk.DateKey
		for _, d := range stay.ActiveNightDates() {
			if d.BeforeOrEqual(today) {
				due = append(due, d)
			}
		}
		if len(due) == 0 {
			continue
		}

		result, err := ps.Handler.Poster.EnsureNightlyCharges(ctx, stay, rate, settings.Currency, due)
		created += result.Created
		if err != nil {
			log.Printf("[Sweeper] Error posting charges for stay %s: %v", stay.Key(), err)
		}
	}

	if created > 0 || skippedStays > 0 {
		log.Printf("[Sweeper] Completed: %d charge(s) posted, %d stay(s) not auto-posted", created, skippedStays)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ps *PostingScheduler) RunNow() {
	ps.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (ps *PostingScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ps.CheckInterval)
}
