package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
)

// CachedPatientAdapter wraps PatientAdapter with caching. Patients are
// written once by ingestion and read repeatedly during entity resolution, so
// the ID and CPF lookups are cached; name substring search always goes to
// the database.
type CachedPatientAdapter struct {
	adapter repositories.PatientRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedPatientAdapter creates a new cached patient adapter. metrics may
// be nil when cache hit/miss counters are not wanted.
func NewCachedPatientAdapter(adapter repositories.PatientRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.PatientRepository {
	return &CachedPatientAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Cache TTLs (in seconds)
const (
	patientByIDTTL  = 300 // 5 minutes for single patient
	patientByCPFTTL = 300
)

func patientCacheKey(id int64) string {
	return fmt.Sprintf("patient:id:%d", id)
}

func patientCPFCacheKey(cpf string) string {
	return fmt.Sprintf("patient:cpf:%s", cpf)
}

// Create creates a patient and primes the lookup caches
func (a *CachedPatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	if err := a.adapter.Create(ctx, patient); err != nil {
		return err
	}

	a.cachePatient(patient)

	return nil
}

// GetByID retrieves a patient by row ID with caching
func (a *CachedPatientAdapter) GetByID(ctx context.Context, id int64) (*entities.Patient, error) {
	cacheKey := patientCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var patient entities.Patient
		if err := json.Unmarshal(cached, &patient); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "patient:id")
			return &patient, nil
		}
		log.Printf("Failed to unmarshal cached patient %d: %v", id, err)
	}
	observability.RecordCacheMiss(ctx, a.metrics, "patient:id")

	patient, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.cachePatient(patient)

	return patient, nil
}

// GetByCPF retrieves a patient by national ID with caching
func (a *CachedPatientAdapter) GetByCPF(ctx context.Context, cpf string) (*entities.Patient, error) {
	cacheKey := patientCPFCacheKey(cpf)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var patient entities.Patient
		if err := json.Unmarshal(cached, &patient); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "patient:cpf")
			return &patient, nil
		}
		log.Printf("Failed to unmarshal cached patient by cpf: %v", err)
	}
	observability.RecordCacheMiss(ctx, a.metrics, "patient:cpf")

	patient, err := a.adapter.GetByCPF(ctx, cpf)
	if err != nil {
		return nil, err
	}

	a.cachePatient(patient)

	return patient, nil
}

// FindFirstByName always goes to the database; substring matches depend on
// rows the cache cannot see
func (a *CachedPatientAdapter) FindFirstByName(ctx context.Context, name string) (*entities.Patient, error) {
	return a.adapter.FindFirstByName(ctx, name)
}

// Update updates a patient and invalidates its cache entries
func (a *CachedPatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	if err := a.adapter.Update(ctx, patient); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, patientCacheKey(patient.ID)); err != nil {
			log.Printf("Failed to invalidate patient cache %d: %v", patient.ID, err)
		}
		if patient.CPF != "" {
			if err := a.cache.Delete(bgCtx, patientCPFCacheKey(patient.CPF)); err != nil {
				log.Printf("Failed to invalidate patient cpf cache: %v", err)
			}
		}
	}()

	return nil
}

// List passes through to the database
func (a *CachedPatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	return a.adapter.List(ctx, filter)
}

// cachePatient stores the patient under both lookup keys asynchronously to
// avoid blocking the caller
func (a *CachedPatientAdapter) cachePatient(patient *entities.Patient) {
	go func() {
		bgCtx := context.Background()
		data, err := json.Marshal(patient)
		if err != nil {
			return
		}
		if err := a.cache.Set(bgCtx, patientCacheKey(patient.ID), data, patientByIDTTL); err != nil {
			log.Printf("Failed to cache patient %d: %v", patient.ID, err)
		}
		if patient.CPF != "" {
			if err := a.cache.Set(bgCtx, patientCPFCacheKey(patient.CPF), data, patientByCPFTTL); err != nil {
				log.Printf("Failed to cache patient by cpf: %v", err)
			}
		}
	}()
}
