package report

import (
	"strconv"
	"time"

	"viajjo/internal/cache"
	"viajjo/internal/tracker"
)

// CacheRecorder observes report cache lookups.
type CacheRecorder interface {
	CacheLookup(cache string, hit bool)
}

// Generator builds reports and caches them per user and period.
type Generator struct {
	cache    cache.Cache[Report]
	recorder CacheRecorder
	now      func() time.Time
}

type Option func(*Generator)

func WithRecorder(r CacheRecorder) Option {
	return func(g *Generator) { g.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(c cache.Cache[Report], opts ...Option) *Generator {
	g := &Generator{cache: c, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// cacheKey includes the record revision, so a report built from an older
// snapshot is never served for a newer record.
func cacheKey(email string, revision uint64, p Period, at time.Time) string {
	return "report:" + tracker.NormalizeEmail(email) + ":" + strconv.FormatUint(revision, 10) +
		":" + string(p) + ":" + p.bucket(at)
}

// Generate returns the report for rec, building it on a cache miss.
func (g *Generator) Generate(rec tracker.UserRecord, p Period) Report {
	at := g.now()
	key := cacheKey(rec.Email, rec.Revision, p, at)
	if g.cache != nil {
		if r, ok := g.cache.Get(key); ok {
			g.observe(true)
			return r
		}
		g.observe(false)
	}

	r := Build(rec, p, at)
	if g.cache != nil {
		g.cache.Set(key, r)
	}
	return r
}

// Invalidate drops the user's cached reports built from the superseded
// revision for the current calendar slices, the only ones Generate reads.
// Reports of older revisions are unreachable and age out of the cache.
func (g *Generator) Invalidate(email string, revision uint64) {
	if g.cache == nil {
		return
	}
	at := g.now()
	for _, p := range Periods {
		g.cache.Delete(cacheKey(email, revision, p, at))
	}
}

func (g *Generator) observe(hit bool) {
	if g.recorder != nil {
		g.recorder.CacheLookup("report", hit)
	}
}
