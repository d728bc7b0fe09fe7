package external

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/drug-repurposing-server/internal/domain"
)

// memoryCacheSize is the default tier-1 LRU capacity when not configured
const memoryCacheSize = 256

// memCacheEntry wraps a tier-1 cache value with its expiry
type memCacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// CacheStats tracks tier-1/tier-2 cache effectiveness
type CacheStats struct {
	MemoryHits   int64 `json:"memory_hits"`
	MemoryMisses int64 `json:"memory_misses"`
	RedisHits    int64 `json:"redis_hits"`
	RedisMisses  int64 `json:"redis_misses"`
}

// DataService is the resilient evidence-fetching facade. Each upstream call
// goes through a two-tier cache (in-process LRU, then Redis) and a
// per-service circuit breaker; open breakers fall back to cached or curated
// data where available.
type DataService struct {
	openTargets *OpenTargetsClient
	chembl      *ChEMBLClient
	dgidb       *DGIdbClient
	trials      *ClinicalTrialsClient
	openFDA     *OpenFDAClient

	cache  *CacheClient // nil when Redis is not configured
	memory *lru.Cache
	ttl    time.Duration
	logger *logrus.Logger

	openTargetsBreaker *gobreaker.CircuitBreaker
	chemblBreaker      *gobreaker.CircuitBreaker
	dgidbBreaker       *gobreaker.CircuitBreaker
	trialsBreaker      *gobreaker.CircuitBreaker
	openFDABreaker     *gobreaker.CircuitBreaker

	memoryHits   int64
	memoryMisses int64
	redisHits    int64
	redisMisses  int64
}

// NewDataService creates the facade with circuit breakers for every
// upstream service. Redis is optional: an empty RedisURL runs with the
// in-process cache only.
func NewDataService(apiConfig domain.ExternalAPIConfig, cacheConfig domain.CacheConfig, logger *logrus.Logger) (*DataService, error) {
	memSize := cacheConfig.MemorySize
	if memSize <= 0 {
		memSize = memoryCacheSize
	}
	memory, err := lru.New(memSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	var cache *CacheClient
	if cacheConfig.RedisURL != "" {
		cache, err = NewCacheClient(cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache client: %w", err)
		}
	}

	s := &DataService{
		openTargets: NewOpenTargetsClient(apiConfig.OpenTargets),
		chembl:      NewChEMBLClient(apiConfig.ChEMBL),
		dgidb:       NewDGIdbClient(apiConfig.DGIdb),
		trials:      NewClinicalTrialsClient(apiConfig.ClinicalTrials),
		openFDA:     NewOpenFDAClient(apiConfig.OpenFDA),
		cache:       cache,
		memory:      memory,
		ttl:         cacheConfig.DefaultTTL,
		logger:      logger,
	}

	s.openTargetsBreaker = s.newBreaker("OpenTargets")
	s.chemblBreaker = s.newBreaker("ChEMBL")
	s.dgidbBreaker = s.newBreaker("DGIdb")
	s.trialsBreaker = s.newBreaker("ClinicalTrials")
	s.openFDABreaker = s.newBreaker("OpenFDA")

	return s, nil
}

func (s *DataService) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			s.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// FetchDisease resolves a disease through the cache tiers, OpenTargets and
// the curated fallback, then enriches it with rarity and trial counts.
func (s *DataService) FetchDisease(ctx context.Context, diseaseName string) (*domain.DiseaseRecord, error) {
	memKey := "disease:" + strings.ToLower(strings.TrimSpace(diseaseName))
	if cached, ok := s.memoryGet(memKey); ok {
		return cached.(*domain.DiseaseRecord), nil
	}

	if s.cache != nil {
		if record, found, err := s.cache.GetDiseaseRecord(ctx, diseaseName); err == nil && found {
			atomic.AddInt64(&s.redisHits, 1)
			s.memorySet(memKey, record)
			return record, nil
		}
		atomic.AddInt64(&s.redisMisses, 1)
	}

	record := s.fetchDiseaseLive(ctx, diseaseName)

	// Sparse or failed live fetch falls back to curated biology.
	if SparseResult(record) {
		if curated := CuratedDisease(diseaseName); curated != nil {
			record = curated
		}
	}
	if record == nil {
		return nil, domain.ErrDiseaseNotFound
	}

	if !record.IsRare {
		record.IsRare = IsRareDisease(record.Name, record.Description)
	}
	s.attachTrialsCount(ctx, record)

	s.memorySet(memKey, record)
	if s.cache != nil {
		if err := s.cache.SetDiseaseRecord(ctx, diseaseName, record, 0); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to cache disease record")
		}
	}

	return record, nil
}

func (s *DataService) fetchDiseaseLive(ctx context.Context, diseaseName string) *domain.DiseaseRecord {
	result, err := s.openTargetsBreaker.Execute(func() (interface{}, error) {
		return s.openTargets.FetchDisease(ctx, diseaseName)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"disease": diseaseName,
			"error":   err.Error(),
		}).Warn("OpenTargets fetch failed")
		return nil
	}
	return result.(*domain.DiseaseRecord)
}

// attachTrialsCount adds the active trial count; a failure here degrades to
// zero rather than failing the disease fetch.
func (s *DataService) attachTrialsCount(ctx context.Context, record *domain.DiseaseRecord) {
	result, err := s.trialsBreaker.Execute(func() (interface{}, error) {
		return s.trials.ActiveTrialsCount(ctx, record.Name)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"disease": record.Name,
			"error":   err.Error(),
		}).Debug("Trials count unavailable")
		return
	}
	record.ActiveTrialsCount = result.(int)
}

// FetchDrugCatalog assembles the approved-drug catalog from ChEMBL enriched
// with DGIdb target data, falling back to the embedded catalog when the
// live pipeline is unavailable.
func (s *DataService) FetchDrugCatalog(ctx context.Context, limit int) ([]domain.DrugRecord, error) {
	memKey := fmt.Sprintf("catalog:%d", limit)
	if cached, ok := s.memoryGet(memKey); ok {
		return cached.([]domain.DrugRecord), nil
	}

	if s.cache != nil {
		if drugs, found, err := s.cache.GetDrugCatalog(ctx, limit); err == nil && found {
			atomic.AddInt64(&s.redisHits, 1)
			s.memorySet(memKey, drugs)
			return drugs, nil
		}
		atomic.AddInt64(&s.redisMisses, 1)
	}

	drugs := s.fetchCatalogLive(ctx, limit)
	if len(drugs) == 0 {
		s.logger.Warn("Live drug catalog unavailable, using embedded catalog")
		drugs = CuratedDrugCatalog()
		if limit > 0 && len(drugs) > limit {
			drugs = drugs[:limit]
		}
	}

	s.memorySet(memKey, drugs)
	if s.cache != nil {
		if err := s.cache.SetDrugCatalog(ctx, limit, drugs, 0); err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to cache drug catalog")
		}
	}

	return drugs, nil
}

func (s *DataService) fetchCatalogLive(ctx context.Context, limit int) []domain.DrugRecord {
	result, err := s.chemblBreaker.Execute(func() (interface{}, error) {
		return s.chembl.FetchApprovedDrugs(ctx, limit)
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("ChEMBL catalog fetch failed")
		return nil
	}
	drugs := result.([]domain.DrugRecord)

	enhanced, err := s.dgidbBreaker.Execute(func() (interface{}, error) {
		return s.dgidb.EnhanceDrugTargets(ctx, drugs)
	})
	if err != nil {
		// Catalog without targets still scores on mechanism/literature.
		s.logger.WithField("error", err.Error()).Warn("DGIdb enhancement failed")
		return drugs
	}
	return enhanced.([]domain.DrugRecord)
}

// FetchDrugLabel fetches an FDA label through cache and circuit breaker
func (s *DataService) FetchDrugLabel(ctx context.Context, drugName string) (*DrugLabel, error) {
	memKey := "label:" + strings.ToLower(drugName)
	if cached, ok := s.memoryGet(memKey); ok {
		return cached.(*DrugLabel), nil
	}

	if s.cache != nil {
		if label, found, err := s.cache.GetDrugLabel(ctx, drugName); err == nil && found {
			atomic.AddInt64(&s.redisHits, 1)
			s.memorySet(memKey, label)
			return label, nil
		}
		atomic.AddInt64(&s.redisMisses, 1)
	}

	result, err := s.openFDABreaker.Execute(func() (interface{}, error) {
		return s.openFDA.FetchLabel(ctx, drugName)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("OpenFDA service unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("OpenFDA label query failed: %w", err)
	}

	label := result.(*DrugLabel)
	if label != nil {
		s.memorySet(memKey, label)
		if s.cache != nil {
			if err := s.cache.SetDrugLabel(ctx, drugName, label, 0); err != nil {
				s.logger.WithField("error", err.Error()).Warn("Failed to cache drug label")
			}
		}
	}

	return label, nil
}

// CountSeriousEvents proxies the FAERS query through the OpenFDA breaker
func (s *DataService) CountSeriousEvents(ctx context.Context, drugName string, diseaseKeywords []string) (*AdverseEventSummary, error) {
	result, err := s.openFDABreaker.Execute(func() (interface{}, error) {
		return s.openFDA.CountSeriousEvents(ctx, drugName, diseaseKeywords)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("OpenFDA service unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("OpenFDA adverse event query failed: %w", err)
	}
	return result.(*AdverseEventSummary), nil
}

// CircuitBreakerStates returns the current state of all circuit breakers
func (s *DataService) CircuitBreakerStates() map[string]gobreaker.State {
	return map[string]gobreaker.State{
		"OpenTargets":    s.openTargetsBreaker.State(),
		"ChEMBL":         s.chemblBreaker.State(),
		"DGIdb":          s.dgidbBreaker.State(),
		"ClinicalTrials": s.trialsBreaker.State(),
		"OpenFDA":        s.openFDABreaker.State(),
	}
}

// Stats returns cache effectiveness counters
func (s *DataService) Stats() CacheStats {
	return CacheStats{
		MemoryHits:   atomic.LoadInt64(&s.memoryHits),
		MemoryMisses: atomic.LoadInt64(&s.memoryMisses),
		RedisHits:    atomic.LoadInt64(&s.redisHits),
		RedisMisses:  atomic.LoadInt64(&s.redisMisses),
	}
}

// Ping reports Redis health; always healthy when Redis is not configured
func (s *DataService) Ping(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// Close releases cache connections
func (s *DataService) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

func (s *DataService) memoryGet(key string) (interface{}, bool) {
	v, ok := s.memory.Get(key)
	if !ok {
		atomic.AddInt64(&s.memoryMisses, 1)
		return nil, false
	}
	entry := v.(memCacheEntry)
	if time.Now().After(entry.expiresAt) {
		s.memory.Remove(key)
		atomic.AddInt64(&s.memoryMisses, 1)
		return nil, false
	}
	atomic.AddInt64(&s.memoryHits, 1)
	return entry.value, true
}

func (s *DataService) memorySet(key string, value interface{}) {
	ttl := s.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	s.memory.Add(key, memCacheEntry{value: value, expiresAt: time.Now().Add(ttl)})
}
