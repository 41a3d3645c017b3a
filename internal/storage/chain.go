package storage

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codewithboateng/trendline/internal/model"
)

// chainCacheSize bounds the per-chain build cache. History queries re-read
// the same chain prefix for previous, reference and trend lookups, so the
// working set is small.
const chainCacheSize = 256

type buildKey struct {
	job    string
	number int
}

// Chain adapts persisted builds to the model.Build interface so the history
// core can walk them. Lookups are read-through cached.
type Chain struct {
	db    *DB
	cache *lru.Cache[buildKey, BuildRow]
}

// Chain returns a chain view over the DB.
func (db *DB) Chain() (*Chain, error) {
	cache, err := lru.New[buildKey, BuildRow](chainCacheSize)
	if err != nil {
		return nil, err
	}
	return &Chain{db: db, cache: cache}, nil
}

// Build returns the build (job, number) as a chain link.
func (c *Chain) Build(job string, number int) (model.Build, error) {
	row, err := c.load(job, number)
	if err != nil {
		return nil, err
	}
	return &chainBuild{chain: c, row: row}, nil
}

func (c *Chain) load(job string, number int) (BuildRow, error) {
	key := buildKey{job: job, number: number}
	if row, ok := c.cache.Get(key); ok {
		return row, nil
	}
	row, err := c.db.LoadBuild(job, number)
	if err != nil {
		return BuildRow{}, err
	}
	// Only finished builds are immutable; a running build must be re-read.
	if row.Status != "" {
		c.cache.Add(key, row)
	}
	return row, nil
}

// Invalidate drops a build from the cache, for callers that just finished it.
func (c *Chain) Invalidate(job string, number int) {
	c.cache.Remove(buildKey{job: job, number: number})
}

// Selector returns a ResultSelector reading one tool's results from the DB.
func (c *Chain) Selector(tool string) model.ResultSelector {
	return model.SelectorFunc(func(b model.Build) *model.Result {
		row, err := c.db.LoadResult(b.Job(), b.Number(), tool)
		if err != nil {
			return nil
		}
		return resultFromRow(b, row)
	})
}

func resultFromRow(b model.Build, row ResultRow) *model.Result {
	status, ok := model.ParseStatus(row.PluginStatus)
	if !ok {
		return nil
	}
	return &model.Result{
		Tool:         row.Tool,
		Build:        b,
		PluginStatus: status,
		Successful:   row.Successful,
		Health:       row.Health,
		Issues:       model.NewIssueContainer(row.Issues...),
	}
}

// chainBuild is one persisted link of a job's chain.
type chainBuild struct {
	chain *Chain
	row   BuildRow
}

func (b *chainBuild) Job() string    { return b.row.Job }
func (b *chainBuild) Number() int    { return b.row.Number }

func (b *chainBuild) Status() (model.Status, bool) {
	if b.row.Status == "" {
		return 0, false
	}
	return model.ParseStatus(b.row.Status)
}

func (b *chainBuild) StartedAt() time.Time { return b.row.StartedAt }

// Previous resolves the next lower build number of the same job. Lookup
// errors surface as the end of the chain; the walk stays bounded either way.
func (b *chainBuild) Previous() model.Build {
	num, ok, err := b.chain.db.PreviousNumber(b.row.Job, b.row.Number)
	if err != nil || !ok {
		return nil
	}
	prev, err := b.chain.Build(b.row.Job, num)
	if err != nil {
		return nil
	}
	return prev
}
