// Package supabase loads dialogue service schemas from a Supabase table so
// deployments can edit them without shipping schema files.
package supabase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/schema"
	"github.com/supabase-community/supabase-go"
)

// DefaultTable is the table read when Config.Table is empty.
const DefaultTable = "dialogue_services"

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	Table    string        // Default: dialogue_services
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Source interface using Supabase
type Client struct {
	client   *supabase.Client
	table    string
	cache    *cache
	cacheTTL time.Duration

	// fetch runs the table query; filter narrows it to one service name
	fetch func(ctx context.Context, filter string) ([]ServiceRow, error)
}

// cache provides thread-safe caching of fetched definitions
type cache struct {
	mu     sync.RWMutex
	all    *cacheEntry[[]schema.Service]
	byName map[string]*cacheEntry[schema.Service]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase schema source
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	c := newClient(cfg)
	c.client = client
	c.fetch = c.query
	return c, nil
}

func newClient(cfg Config) *Client {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Client{
		table:    cfg.Table,
		cacheTTL: cfg.CacheTTL,
		cache: &cache{
			byName: make(map[string]*cacheEntry[schema.Service]),
		},
	}
}

func (c *Client) query(ctx context.Context, filter string) ([]ServiceRow, error) {
	q := c.client.From(c.table).
		Select("*", "", false).
		Eq("is_active", "true")
	if filter != "" {
		q = q.Eq("service_name", filter)
	}

	var rows []ServiceRow
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Services retrieves all active service definitions, sorted by name. The
// definitions are raw; build a Registry with LoadRegistry before tracking.
func (c *Client) Services(ctx context.Context) ([]schema.Service, error) {
	// Check cache first
	if cached, ok := c.getAll(); ok {
		return cached, nil
	}

	rows, err := c.fetch(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}

	services := make([]schema.Service, 0, len(rows))
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		services = append(services, row.Definition())
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	c.addAll(services)
	return services, nil
}

// Service retrieves one active service by name, indexed for slot and intent
// lookups
func (c *Client) Service(ctx context.Context, name string) (*schema.Service, error) {
	// Check cache first
	if cached, ok := c.getByName(name); ok {
		return &cached, nil
	}

	rows, err := c.fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %q: %w", name, err)
	}

	for _, row := range rows {
		if row.IsActive && row.ServiceName == name {
			svc, err := indexed(row.Definition())
			if err != nil {
				return nil, err
			}
			c.addByName(name, *svc)
			return svc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", dst.ErrNotFound, name)
}

// indexed validates def through schema.Load so slot and intent lookups work
// on the result.
func indexed(def schema.Service) (*schema.Service, error) {
	reg, err := schema.Load([]schema.Service{def})
	if err != nil {
		return nil, err
	}
	return reg.Service(def.Name)
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// LoadRegistry fetches every service from src and builds a Registry.
func LoadRegistry(ctx context.Context, src Source) (*schema.Registry, error) {
	defs, err := src.Services(ctx)
	if err != nil {
		return nil, err
	}
	return schema.Load(defs)
}

func (c *Client) getAll() ([]schema.Service, bool) {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e := c.cache.all; e != nil && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	return nil, false
}

func (c *Client) getByName(name string) (schema.Service, bool) {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byName[name]; ok && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	return schema.Service{}, false
}

// addAll caches the full listing
func (c *Client) addAll(services []schema.Service) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.all = &cacheEntry[[]schema.Service]{
		value:     services,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

func (c *Client) addByName(name string, svc schema.Service) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byName[name] = &cacheEntry[schema.Service]{
		value:     svc,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// Compile-time check that Client implements Source
var _ Source = (*Client)(nil)
