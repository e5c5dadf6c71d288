package flights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yegors/flight-kiosk/internal/config"
	"github.com/yegors/flight-kiosk/internal/feed"
	"github.com/yegors/flight-kiosk/internal/geo"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

// Fetcher retrieves raw feed records for a bounding box or the whole globe
type Fetcher interface {
	FetchBounds(ctx context.Context, box geo.Box) (*feed.Response, error)
	FetchGlobal(ctx context.Context) (*feed.Response, error)
}

// SettingsSource supplies the current home settings and their generation
type SettingsSource interface {
	Snapshot() (config.HomeConfig, uint64)
}

// Options tunes the service
type Options struct {
	FeedTTL         time.Duration
	SampleTTL       time.Duration
	RefreshInterval time.Duration // 0 disables the background refresh
	ListingCap      int
	BestMinAltitude int
	SampleCount     int
	Now             func() time.Time
}

// snapshot is what the feed caches hold: enriched records for one box,
// tagged with the settings generation they were fetched for
type snapshot struct {
	box        geo.Box
	generation uint64
	records    []FlightRecord
}

type sampleSet struct {
	lat, lon float64
	records  []FlightRecord
}

// Service runs the fetch → decode → select pipeline with caching and fallbacks
type Service struct {
	fetcher  Fetcher
	settings SettingsSource
	enricher *Enricher
	selector Selector
	samples  *SampleGenerator
	opts     Options

	feedCache   *ResultCache[snapshot]
	globalCache *ResultCache[snapshot]
	sampleCache *ResultCache[sampleSet]
	group       singleflight.Group

	statusMu   sync.RWMutex
	lastFetch  time.Time
	upstreamOK bool
	lastErr    string

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *logger.Logger
}

// NewService creates a new flights service
func NewService(fetcher Fetcher, settings SettingsSource, enricher *Enricher, samples *SampleGenerator, opts Options, log *logger.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FeedTTL <= 0 {
		opts.FeedTTL = 30 * time.Second
	}
	if opts.SampleTTL <= 0 {
		opts.SampleTTL = 10 * time.Second
	}
	if opts.ListingCap <= 0 {
		opts.ListingCap = 4
	}
	if opts.BestMinAltitude <= 0 {
		opts.BestMinAltitude = 10000
	}
	if opts.SampleCount <= 0 {
		opts.SampleCount = DefaultSampleCount
	}
	if samples == nil {
		samples = NewSampleGenerator(nil)
	}

	return &Service{
		fetcher:     fetcher,
		settings:    settings,
		enricher:    enricher,
		selector:    Selector{ListingCap: opts.ListingCap, BestMinAltitude: opts.BestMinAltitude},
		samples:     samples,
		opts:        opts,
		feedCache:   NewResultCache[snapshot](opts.FeedTTL, opts.Now),
		globalCache: NewResultCache[snapshot](opts.FeedTTL, opts.Now),
		sampleCache: NewResultCache[sampleSet](opts.SampleTTL, opts.Now),
		stopCh:      make(chan struct{}),
		logger:      log.Named("flights"),
	}
}

// Start primes the cache and, if configured, starts the background refresh loop
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting flights service",
		logger.Duration("feed_ttl", s.opts.FeedTTL),
		logger.Duration("refresh_interval", s.opts.RefreshInterval))

	s.refresh(ctx)

	if s.opts.RefreshInterval > 0 {
		s.wg.Add(1)
		go s.refreshLoop(ctx)
	}
	return nil
}

// Stop stops the background refresh loop
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping flights service")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refresh fetches for the current settings so kiosk requests hit a warm cache
func (s *Service) refresh(ctx context.Context) {
	home, gen := s.settings.Snapshot()
	if _, err := s.records(ctx, home, gen, true); err != nil {
		s.logger.Warn("Background refresh failed", logger.Error(err))
	}
}

// Status reports the last fetch attempt time and whether it succeeded
func (s *Service) Status() (lastFetch time.Time, upstreamOK bool, lastErr string) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.lastFetch, s.upstreamOK, s.lastErr
}

func (s *Service) setStatus(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastFetch = s.opts.Now()
	s.upstreamOK = err == nil
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
}

// Local returns the nearest flights around home, capped by the listing policy.
// A nil home uses the stored settings.
func (s *Service) Local(ctx context.Context, home *config.HomeConfig) Result {
	h, gen, fromSettings := s.resolveHome(home)

	recs, stale, err := s.recordsWithFallback(ctx, h, gen, fromSettings)
	if err != nil {
		return s.demo(h)
	}

	band := Band{Min: h.MinAltitude, Max: h.MaxAltitude}
	listed, total := s.selector.List(recs, h.Latitude, h.Longitude, band)
	if len(listed) == 0 {
		s.logger.Debug("No flights survived filtering, using sample data")
		return s.demo(h)
	}

	return Result{
		Success:   true,
		Flights:   s.withMagneticTrack(listed),
		Mode:      ModeLive,
		Source:    SourceFeed,
		Count:     total,
		Filters:   &Filters{MinAltitude: band.Min, MaxAltitude: band.Max},
		Stale:     stale,
		FetchedAt: s.opts.Now(),
	}
}

// Best returns the single best flight around home
func (s *Service) Best(ctx context.Context, home *config.HomeConfig) Result {
	h, gen, fromSettings := s.resolveHome(home)

	recs, stale, err := s.recordsWithFallback(ctx, h, gen, fromSettings)
	if err != nil {
		return s.demoBest(h)
	}

	band := Band{Min: h.MinAltitude, Max: h.MaxAltitude}
	best, ok := s.selector.Best(recs, h.Latitude, h.Longitude, band)
	if !ok {
		return s.demoBest(h)
	}

	return Result{
		Success:   true,
		Flights:   s.withMagneticTrack([]FlightRecord{best}),
		Mode:      ModeLive,
		Source:    SourceFeed,
		Count:     1,
		Stale:     stale,
		FetchedAt: s.opts.Now(),
	}
}

// Global returns the most-tracked airborne flights worldwide, in feed order
func (s *Service) Global(ctx context.Context) Result {
	h, _ := s.settings.Snapshot()

	var recs []FlightRecord
	stale := false
	if snap, _, ok := s.globalCache.Get(); ok {
		recs = snap.records
	} else {
		v, err, _ := s.group.Do("global", func() (any, error) {
			return s.fetchGlobal(ctx)
		})
		if err != nil {
			last, _, ok := s.globalCache.Last()
			if !ok {
				return s.demo(h)
			}
			recs, stale = last.records, true
		} else {
			recs = v.([]FlightRecord)
			s.globalCache.Set(snapshot{box: geo.World, records: recs})
		}
	}

	listed, total := s.selector.MostTracked(recs, h.Latitude, h.Longitude)
	if len(listed) == 0 {
		return s.demo(h)
	}

	return Result{
		Success:   true,
		Flights:   s.withMagneticTrack(listed),
		Mode:      ModeLive,
		Source:    SourceFeed,
		Count:     total,
		Stale:     stale,
		FetchedAt: s.opts.Now(),
	}
}

func (s *Service) resolveHome(home *config.HomeConfig) (config.HomeConfig, uint64, bool) {
	if home != nil {
		return *home, 0, false
	}
	h, gen := s.settings.Snapshot()
	return h, gen, true
}

// recordsWithFallback runs the fetch and, when the upstream is unavailable,
// falls back to the last result cached for the same box even if expired.
func (s *Service) recordsWithFallback(ctx context.Context, home config.HomeConfig, gen uint64, fromSettings bool) ([]FlightRecord, bool, error) {
	recs, err := s.records(ctx, home, gen, fromSettings)
	if err == nil {
		return recs, false, nil
	}

	box := geo.BoundingBox(home.Latitude, home.Longitude, home.RadiusKm)
	if last, fetchedAt, ok := s.feedCache.Last(); ok && last.box == box {
		s.logger.Info("Serving cached flights after upstream failure",
			logger.Time("fetched_at", fetchedAt),
			logger.Int("records", len(last.records)))
		return last.records, true, nil
	}

	return nil, false, err
}

// records returns enriched records for home's box from the cache or a
// single-flight fetch. Only fetches issued for the current settings
// generation are written to the cache.
func (s *Service) records(ctx context.Context, home config.HomeConfig, gen uint64, fromSettings bool) ([]FlightRecord, error) {
	box := geo.BoundingBox(home.Latitude, home.Longitude, home.RadiusKm)

	if snap, _, ok := s.feedCache.Get(); ok && snap.box == box {
		return snap.records, nil
	}

	v, err, _ := s.group.Do(box.String(), func() (any, error) {
		return s.fetch(ctx, box)
	})
	if err != nil {
		return nil, err
	}
	recs := v.([]FlightRecord)

	if fromSettings {
		if _, current := s.settings.Snapshot(); current != gen {
			s.logger.Debug("Discarding superseded fetch",
				logger.Uint64("issued_generation", gen),
				logger.Uint64("current_generation", current))
			return recs, nil
		}
	}

	s.feedCache.Set(snapshot{box: box, generation: gen, records: recs})
	return recs, nil
}

// fetch runs one upstream fetch and enrichment. The fetch is detached from
// the caller's cancellation since other callers may be sharing it; the feed
// client's own timeout bounds it.
func (s *Service) fetch(ctx context.Context, box geo.Box) ([]FlightRecord, error) {
	resp, err := s.fetcher.FetchBounds(context.WithoutCancel(ctx), box)
	return s.decode(box, resp, err)
}

func (s *Service) fetchGlobal(ctx context.Context) ([]FlightRecord, error) {
	resp, err := s.fetcher.FetchGlobal(context.WithoutCancel(ctx))
	return s.decode(geo.World, resp, err)
}

func (s *Service) decode(box geo.Box, resp *feed.Response, err error) ([]FlightRecord, error) {
	s.setStatus(err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", box, err)
	}

	recs := s.enricher.EnrichAll(resp.Records)
	s.logger.Debug("Decoded feed records",
		logger.String("bounds", box.String()),
		logger.Int("records", len(recs)),
		logger.Int("skipped", resp.Skipped))
	return recs, nil
}

func (s *Service) samplesFor(h config.HomeConfig) []FlightRecord {
	if set, _, ok := s.sampleCache.Get(); ok && set.lat == h.Latitude && set.lon == h.Longitude {
		return set.records
	}
	recs := s.samples.Generate(h.Latitude, h.Longitude, s.opts.SampleCount)
	s.sampleCache.Set(sampleSet{lat: h.Latitude, lon: h.Longitude, records: recs})
	return recs
}

func (s *Service) demo(h config.HomeConfig) Result {
	recs := s.samplesFor(h)
	return Result{
		Success:   true,
		Flights:   recs,
		Mode:      ModeDemo,
		Source:    SourceSample,
		FetchedAt: s.opts.Now(),
	}
}

func (s *Service) demoBest(h config.HomeConfig) Result {
	res := s.demo(h)
	if best, ok := SelectBest(res.Flights, s.opts.BestMinAltitude); ok {
		res.Flights = []FlightRecord{best}
	}
	return res
}

// withMagneticTrack annotates a short, already-selected list with magnetic tracks
func (s *Service) withMagneticTrack(recs []FlightRecord) []FlightRecord {
	now := s.opts.Now()
	out := make([]FlightRecord, len(recs))
	for i, r := range recs {
		if r.Position != nil {
			v := geo.MagneticVariation(r.Position.Latitude, r.Position.Longitude, float64(r.Altitude), now)
			m := geo.MagneticTrack(r.Track, v)
			r.MagneticTrack = &m
		}
		out[i] = r
	}
	return out
}
