package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"health-inventory/internal/domain/agegroups"
	"health-inventory/internal/platform/httpclient"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrDirectoryNotConfigured = errors.New("age group directory not configured")
	ErrDirectoryUnauthorized  = errors.New("age group directory unauthorized")
	ErrDirectoryUpstream      = errors.New("age group directory upstream error")
)

const (
	listPath = "/v1/age-groups"
	cacheKey = "directory"
)

// Config del directorio remoto de grupos etarios.
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration

	// CacheTTL <= 0 desactiva la cache.
	CacheTTL time.Duration
}

// Client implementa agegroups.Source contra un servicio externo.
type Client struct {
	http  *httpclient.Client
	cache *expirable.LRU[string, agegroups.Directory]
}

var _ agegroups.Source = (*Client)(nil)

func NewClient(cfg Config, opts ...httpclient.Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrDirectoryNotConfigured
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, httpclient.WithHeader(header, key))
	}

	hc, err := httpclient.New(cfg.BaseURL, timeout, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{http: hc}
	if cfg.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, agegroups.Directory](1, nil, cfg.CacheTTL)
	}
	return c, nil
}

// FetchAgeGroups trae el directorio; mientras no venza el TTL responde desde cache.
func (c *Client) FetchAgeGroups(ctx context.Context) (agegroups.Directory, error) {
	if c.cache != nil {
		if dir, ok := c.cache.Get(cacheKey); ok {
			return dir, nil
		}
	}

	var items []remoteAgeGroup
	if err := c.http.DoJSON(ctx, http.MethodGet, listPath, nil, nil, &items); err != nil {
		if httpclient.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return agegroups.Directory{}, ErrDirectoryUnauthorized
		}
		return agegroups.Directory{}, fmt.Errorf("%w: %v", ErrDirectoryUpstream, err)
	}

	groups := make([]agegroups.AgeGroup, 0, len(items))
	for _, it := range items {
		groups = append(groups, agegroups.AgeGroup{
			ID:     string(it.ID),
			Name:   strings.TrimSpace(it.Name),
			MinAge: it.MinAge,
			MaxAge: it.MaxAge,
			Unit:   strings.TrimSpace(it.Unit),
		})
	}
	dir := agegroups.BuildDirectory(groups)

	if c.cache != nil {
		c.cache.Add(cacheKey, dir)
	}
	return dir, nil
}

// Invalidate descarta el directorio cacheado.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

type remoteAgeGroup struct {
	ID     agegroups.FlexID `json:"id"`
	Name   string           `json:"name"`
	MinAge int              `json:"min_age"`
	MaxAge int              `json:"max_age"`
	Unit   string           `json:"time_unit"`
}
