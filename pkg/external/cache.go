package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drug-repurposing-server/internal/domain"
)

// CacheClient wraps Redis with caching for disease records, drug catalogs
// and FDA label data
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewCacheClient creates a new cache client
func NewCacheClient(config domain.CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// CachedDiseaseRecord represents a cached disease record with metadata
type CachedDiseaseRecord struct {
	Data      *domain.DiseaseRecord `json:"data"`
	CachedAt  time.Time             `json:"cached_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// CachedDrugCatalog represents a cached drug catalog with metadata
type CachedDrugCatalog struct {
	Data      []domain.DrugRecord `json:"data"`
	CachedAt  time.Time           `json:"cached_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// CachedDrugLabel represents a cached FDA label with metadata
type CachedDrugLabel struct {
	Data      *DrugLabel `json:"data"`
	CachedAt  time.Time  `json:"cached_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// GetDiseaseRecord retrieves a cached disease record by query name
func (c *CacheClient) GetDiseaseRecord(ctx context.Context, diseaseName string) (*domain.DiseaseRecord, bool, error) {
	key := c.diseaseKey(diseaseName)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get disease cache: %w", err)
	}

	var cached CachedDiseaseRecord
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Data, true, nil
}

// SetDiseaseRecord caches a disease record under its query name
func (c *CacheClient) SetDiseaseRecord(ctx context.Context, diseaseName string, data *domain.DiseaseRecord, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := CachedDiseaseRecord{
		Data:      data,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal disease cache data: %w", err)
	}

	return c.redis.Set(ctx, c.diseaseKey(diseaseName), jsonData, ttl).Err()
}

// GetDrugCatalog retrieves the cached drug catalog for a size limit
func (c *CacheClient) GetDrugCatalog(ctx context.Context, limit int) ([]domain.DrugRecord, bool, error) {
	key := c.catalogKey(limit)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get catalog cache: %w", err)
	}

	var cached CachedDrugCatalog
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Data, true, nil
}

// SetDrugCatalog caches the drug catalog for a size limit
func (c *CacheClient) SetDrugCatalog(ctx context.Context, limit int, data []domain.DrugRecord, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := CachedDrugCatalog{
		Data:      data,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog cache data: %w", err)
	}

	return c.redis.Set(ctx, c.catalogKey(limit), jsonData, ttl).Err()
}

// GetDrugLabel retrieves a cached FDA label
func (c *CacheClient) GetDrugLabel(ctx context.Context, drugName string) (*DrugLabel, bool, error) {
	key := c.labelKey(drugName)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get label cache: %w", err)
	}

	var cached CachedDrugLabel
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Data, true, nil
}

// SetDrugLabel caches an FDA label
func (c *CacheClient) SetDrugLabel(ctx context.Context, drugName string, data *DrugLabel, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := CachedDrugLabel{
		Data:      data,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal label cache data: %w", err)
	}

	return c.redis.Set(ctx, c.labelKey(drugName), jsonData, ttl).Err()
}

// InvalidateDisease removes the cached record for a disease query
func (c *CacheClient) InvalidateDisease(ctx context.Context, diseaseName string) error {
	return c.redis.Del(ctx, c.diseaseKey(diseaseName)).Err()
}

// InvalidatePattern removes all cached data matching a pattern
func (c *CacheClient) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := c.redis.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys for pattern %s: %w", pattern, err)
	}

	if len(keys) == 0 {
		return nil
	}

	return c.redis.Del(ctx, keys...).Err()
}

// Ping checks if the Redis connection is alive
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *CacheClient) Close() error {
	return c.redis.Close()
}

func (c *CacheClient) diseaseKey(diseaseName string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(diseaseName))))
	return fmt.Sprintf("disease:record:%x", hash[:8])
}

func (c *CacheClient) catalogKey(limit int) string {
	return fmt.Sprintf("drugs:catalog:%d", limit)
}

func (c *CacheClient) labelKey(drugName string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(drugName))))
	return fmt.Sprintf("fda:label:%x", hash[:8])
}
