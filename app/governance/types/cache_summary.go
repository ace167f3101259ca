package types

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

// SummaryTTL bounds how stale a cached vote summary may be. The UI polls
// summaries aggressively while a vote is open; a few seconds of staleness is
// acceptable and keeps the tally query off the hot path.
const SummaryTTL = 5 * time.Second

type CachedSummary struct {
	Summary *models.VoteSummary
	Fetched time.Time
}

// SummaryCache is a concurrent proposal-id -> vote summary cache.
type SummaryCache struct {
	entries *xsync.Map[string, CachedSummary]
}

// NewSummaryCache creates a new vote summary cache.
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{entries: xsync.NewMap[string, CachedSummary]()}
}

// Get returns a cached summary when one is present and fresh.
func (c *SummaryCache) Get(proposalID string) (*models.VoteSummary, bool) {
	cached, ok := c.entries.Load(proposalID)
	if !ok || time.Since(cached.Fetched) > SummaryTTL {
		return nil, false
	}
	return cached.Summary, true
}

// Put stores a freshly computed summary.
func (c *SummaryCache) Put(proposalID string, summary *models.VoteSummary) {
	c.entries.Store(proposalID, CachedSummary{Summary: summary, Fetched: time.Now()})
}

// Invalidate drops the cached summary after a ballot lands.
func (c *SummaryCache) Invalidate(proposalID string) {
	c.entries.Delete(proposalID)
}
