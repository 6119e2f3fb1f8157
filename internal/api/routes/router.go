package routes

import (
	"net/http"

	"github.com/vitallink/clinic-records/backend/internal/api/handlers"
	"github.com/vitallink/clinic-records/backend/internal/api/middleware"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	patientHandler *handlers.PatientHandler

	doctorHandler *handlers.DoctorHandler

	examHandler *handlers.ExamHandler

	reportHandler *handlers.ReportHandler

	statsHandler     *handlers.StatsHandler
	ingestionHandler *handlers.IngestionHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	patientHandler *handlers.PatientHandler,

	doctorHandler *handlers.DoctorHandler,

	examHandler *handlers.ExamHandler,

	reportHandler *handlers.ReportHandler,

	statsHandler *handlers.StatsHandler,
	ingestionHandler *handlers.IngestionHandler,

	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		patientHandler: patientHandler,

		doctorHandler: doctorHandler,

		examHandler: examHandler,

		reportHandler: reportHandler,

		statsHandler:     statsHandler,
		ingestionHandler: ingestionHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Patient endpoints

	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)

	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)

	r.mux.HandleFunc("GET /api/patients/{id}/exams", r.patientHandler.GetPatientExams)

	r.mux.HandleFunc("PATCH /api/patients/{id}", r.patientHandler.UpdatePatient)

	// Doctor endpoints

	r.mux.HandleFunc("GET /api/doctors", r.doctorHandler.ListDoctors)

	r.mux.HandleFunc("GET /api/doctors/{id}", r.doctorHandler.GetDoctor)

	r.mux.HandleFunc("PATCH /api/doctors/{id}", r.doctorHandler.UpdateDoctor)

	// Exam endpoints

	r.mux.HandleFunc("GET /api/exams", r.examHandler.ListExams)

	r.mux.HandleFunc("GET /api/exams/by-number/{number}", r.examHandler.GetExamByNumber)

	r.mux.HandleFunc("GET /api/exams/{id}", r.examHandler.GetExam)

	r.mux.HandleFunc("GET /api/exams/{id}/reports", r.examHandler.GetExamReports)

	r.mux.HandleFunc("PATCH /api/exams/{id}", r.examHandler.UpdateExam)

	// Report endpoints

	r.mux.HandleFunc("GET /api/reports/unlinked", r.reportHandler.ListUnlinkedReports)

	r.mux.HandleFunc("GET /api/reports/{id}", r.reportHandler.GetReport)

	// Stats endpoint
	if r.statsHandler != nil {
		r.mux.HandleFunc("GET /api/stats", r.statsHandler.GetStats)
	}

	// Ingestion trigger endpoint
	if r.ingestionHandler != nil {
		r.mux.HandleFunc("POST /api/ingestion/run", r.ingestionHandler.TriggerRun)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
