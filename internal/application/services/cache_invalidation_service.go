package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
)

// CacheInvalidationService subscribes to exam events and drops the cache
// entries the ingestion pipeline may have made stale. List and stats caches
// are left to expire by TTL.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for exam events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelExamUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to exam updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Println("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Println("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ExamEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the exact keys an exam write can stale: the patient
// lookup entries and the cached GET responses for the exam and its patient
func (s *CacheInvalidationService) handleEvent(event *entities.ExamEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys := []string{
		fmt.Sprintf("patient:id:%d", event.PatientID),
		fmt.Sprintf("http:cache:/api/exams/%d", event.ExamID),
		fmt.Sprintf("http:cache:/api/patients/%d", event.PatientID),
	}

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("Warning: Failed to invalidate cache key %s: %v", key, err)
		}
	}
}
