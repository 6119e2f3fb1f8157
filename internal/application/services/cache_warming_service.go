package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
)

// CacheWarmingService primes the patient lookup cache at startup so the
// first ingestion run after a deploy does not pay a cold-cache penalty
type CacheWarmingService struct {
	patientRepo repositories.PatientRepository
	cache       providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	patientRepo repositories.PatientRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		patientRepo: patientRepo,
		cache:       cache,
	}
}

// WarmCache loads recent patients into the lookup cache
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Println("Starting cache warming...")

	patients, err := s.patientRepo.List(ctx, repositories.PatientFilter{Limit: 50})
	if err != nil {
		return fmt.Errorf("failed to fetch patients for warming: %w", err)
	}

	warmed := 0
	for _, patient := range patients {
		data, err := json.Marshal(patient)
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, fmt.Sprintf("patient:id:%d", patient.ID), data, patientByIDCacheTTL); err != nil {
			log.Printf("Failed to warm patient %d: %v", patient.ID, err)
			continue
		}
		if patient.CPF != "" {
			_ = s.cache.Set(ctx, fmt.Sprintf("patient:cpf:%s", patient.CPF), data, patientByIDCacheTTL)
		}
		warmed++
	}

	log.Printf("Cache warming completed: %d patients", warmed)
	return nil
}

// StartPeriodicWarming starts a background goroutine that periodically warms the cache
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	// Initial warming
	if err := s.WarmCache(ctx); err != nil {
		log.Printf("Initial cache warming failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Printf("Periodic cache warming failed: %v", err)
				}
			}
		}
	}()
	log.Printf("Started periodic cache warming every %v", interval)
}

// patientByIDCacheTTL matches the cached patient adapter's TTL (seconds)
const patientByIDCacheTTL = 300
