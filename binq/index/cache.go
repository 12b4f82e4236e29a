// Package index consumes secondary-index metadata: a periodically
// refreshed cache of index descriptors and cardinality statistics, the
// operator eligibility table, and the cost heuristic that picks one index
// for filter pushdown.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/types"
)

type binKey struct {
	namespace string
	bin       string
}

// Cache holds the known secondary indexes. Reads are safe for concurrent
// use; refreshes happen on a background schedule and a stale read only
// yields a suboptimal but still-correct index choice.
type Cache struct {
	client client.Client
	log    *slog.Logger

	mu     sync.RWMutex
	byName map[string]types.IndexDescriptor
	byBin  map[binKey][]string

	scheduler gocron.Scheduler
}

// NewCache builds an empty cache reading from the given client's info
// channel.
func NewCache(c client.Client, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		client: c,
		log:    log,
		byName: make(map[string]types.IndexDescriptor),
		byBin:  make(map[binKey][]string),
	}
}

// Refresh reloads the index list and per-index statistics from the
// cluster's info channel.
func (c *Cache) Refresh(ctx context.Context) error {
	responses, err := c.client.Info(ctx, "sindex-list")
	if err != nil {
		return fmt.Errorf("index: refreshing index list: %w", err)
	}
	descriptors := make(map[string]types.IndexDescriptor)
	for node, response := range responses {
		parsed, err := parseIndexList(response)
		if err != nil {
			return fmt.Errorf("index: node %s: %w", node, err)
		}
		for _, d := range parsed {
			descriptors[d.Name] = d
		}
	}
	for name, d := range descriptors {
		ratio, err := c.fetchRatio(ctx, d)
		if err != nil {
			// Statistics are advisory; an index without a ratio still
			// qualifies for pushdown.
			c.log.Warn("index statistics unavailable", "index", name, "error", err)
			continue
		}
		d.Ratio = ratio
		descriptors[name] = d
	}
	c.Replace(descriptorList(descriptors))
	c.log.Debug("index cache refreshed", "indexes", len(descriptors))
	return nil
}

func (c *Cache) fetchRatio(ctx context.Context, d types.IndexDescriptor) (float64, error) {
	command := fmt.Sprintf("sindex-stat:ns=%s;indexname=%s", d.Namespace, d.Name)
	responses, err := c.client.Info(ctx, command)
	if err != nil {
		return 0, err
	}
	var entries, keys int64
	for _, response := range responses {
		e, k, err := parseIndexStat(response)
		if err != nil {
			return 0, err
		}
		entries += e
		keys += k
	}
	if keys == 0 {
		return 0, nil
	}
	return float64(entries) / float64(keys), nil
}

// Replace swaps the cache contents. Used by Refresh, snapshot loading and
// tests.
func (c *Cache) Replace(descriptors []types.IndexDescriptor) {
	byName := make(map[string]types.IndexDescriptor, len(descriptors))
	byBin := make(map[binKey][]string)
	for _, d := range descriptors {
		byName[d.Name] = d
		k := binKey{namespace: d.Namespace, bin: d.Bin}
		byBin[k] = append(byBin[k], d.Name)
	}
	c.mu.Lock()
	c.byName = byName
	c.byBin = byBin
	c.mu.Unlock()
}

// ByName looks an index up by name.
func (c *Cache) ByName(name string) (types.IndexDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[name]
	return d, ok
}

// Candidates returns the indexes covering a bin in a namespace.
func (c *Cache) Candidates(namespace, bin string) []types.IndexDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := c.byBin[binKey{namespace: namespace, bin: bin}]
	out := make([]types.IndexDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, c.byName[name])
	}
	return out
}

// All returns every cached descriptor.
func (c *Cache) All() []types.IndexDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.IndexDescriptor, 0, len(c.byName))
	for _, d := range c.byName {
		out = append(out, d)
	}
	return out
}

// StartRefresher refreshes the cache now and then on every interval until
// Stop is called.
func (c *Cache) StartRefresher(ctx context.Context, interval time.Duration) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("index: starting refresher: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := c.Refresh(refreshCtx); err != nil {
				c.log.Warn("periodic index refresh failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("index: scheduling refresh: %w", err)
	}
	scheduler.Start()
	c.scheduler = scheduler
	return nil
}

// Stop shuts the background refresher down.
func (c *Cache) Stop() error {
	if c.scheduler == nil {
		return nil
	}
	return c.scheduler.Shutdown()
}

func descriptorList(m map[string]types.IndexDescriptor) []types.IndexDescriptor {
	out := make([]types.IndexDescriptor, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	return out
}

// parseIndexList parses a semicolon-separated list of colon-separated
// k=v descriptors:
//
//	ns=test:set=Person:indexname=idx_age:bin=age:type=numeric:indextype=default
func parseIndexList(response string) ([]types.IndexDescriptor, error) {
	var out []types.IndexDescriptor
	for _, entry := range strings.Split(strings.TrimSpace(response), ";") {
		if entry == "" {
			continue
		}
		fields := map[string]string{}
		for _, pair := range strings.Split(entry, ":") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("malformed index entry %q", entry)
			}
			fields[k] = v
		}
		d := types.IndexDescriptor{
			Name:      fields["indexname"],
			Namespace: fields["ns"],
			Set:       fields["set"],
			Bin:       fields["bin"],
		}
		if d.Name == "" || d.Namespace == "" || d.Bin == "" {
			return nil, fmt.Errorf("incomplete index entry %q", entry)
		}
		switch fields["type"] {
		case "numeric", "":
			d.Type = types.IndexNumeric
		case "string", "text":
			d.Type = types.IndexString
		case "blob":
			d.Type = types.IndexBlob
		case "geo2dsphere":
			d.Type = types.IndexGeo2DSphere
		default:
			return nil, fmt.Errorf("unknown index type %q in %q", fields["type"], entry)
		}
		switch fields["indextype"] {
		case "", "default", "none":
			d.Collection = types.IndexCollectionNone
		case "list":
			d.Collection = types.IndexCollectionList
		case "mapkeys":
			d.Collection = types.IndexCollectionMapKeys
		case "mapvalues":
			d.Collection = types.IndexCollectionMapValues
		default:
			return nil, fmt.Errorf("unknown collection type %q in %q", fields["indextype"], entry)
		}
		out = append(out, d)
	}
	return out, nil
}

// parseIndexStat extracts the entries and unique-key counts from a
// semicolon-separated statistics response.
func parseIndexStat(response string) (entries, keys int64, err error) {
	for _, pair := range strings.Split(strings.TrimSpace(response), ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch k {
		case "entries":
			if entries, err = strconv.ParseInt(v, 10, 64); err != nil {
				return 0, 0, fmt.Errorf("malformed entries count %q", v)
			}
		case "keys":
			if keys, err = strconv.ParseInt(v, 10, 64); err != nil {
				return 0, 0, fmt.Errorf("malformed keys count %q", v)
			}
		}
	}
	return entries, keys, nil
}
