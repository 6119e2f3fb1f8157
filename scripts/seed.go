package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vitallink/clinic-records/backend/internal/adapters/database"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	"github.com/vitallink/clinic-records/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	patientRepo := database.NewPatientAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)
	examRepo := database.NewExamAdapter(pgClient)
	reportRepo := database.NewReportAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				reports,
				exams,
				doctors,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed Doctors
	doctors := []*entities.Doctor{
		{Name: "Dr. Carlos Andrade", CRM: "45231"},
		{Name: "Dra. Helena Prado", CRM: "61877"},
		{Name: "Dr. Rafael Tostes", CRM: "29904"},
	}
	for _, d := range doctors {
		if err := doctorRepo.Create(ctx, d); err != nil {
			log.Printf("Failed to create doctor %s: %v", d.Name, err)
		}
	}

	// 2. Seed Patients
	patients := []*entities.Patient{
		{PatientCode: "PAC20240301a1b2c3d4", FullName: "Maria da Silva", BirthDate: "1980-12-25", Gender: "Feminino", CPF: "12345678900"},
		{PatientCode: "PAC20240301b2c3d4e5", FullName: "João Pereira", BirthDate: "1975-03-02", Gender: "Masculino", CPF: "98765432100"},
		{PatientCode: "PAC20240302c3d4e5f6", FullName: "Ana Beatriz Costa", BirthDate: "1992-07-14", Gender: "Feminino"},
		{PatientCode: "PAC20240302d4e5f6a7", FullName: "Pedro H. Ramos", BirthDate: "1968-01-30", Gender: "Masculino", CPF: "45678912300"},
	}
	for _, p := range patients {
		if err := patientRepo.Create(ctx, p); err != nil {
			log.Printf("Failed to create patient %s: %v", p.FullName, err)
		}
	}

	// 3. Seed Exams, one per patient across two days
	dates := []string{"2024-03-01", "2024-03-01", "2024-03-02", "2024-03-02"}
	times := []string{"09:30", "10:15", "08:45", "14:00"}
	for i, p := range patients {
		exam := &entities.Exam{
			ExamNumber: fmt.Sprintf("ECG-2024-%03d", i+1),
			PatientID:  p.ID,
			ExamDate:   dates[i],
			ExamTime:   times[i],
			SourcePath: fmt.Sprintf("/mnt/exams/ECG-2024-%03d##%s0930#.WXML", i+1, seedToken(dates[i])),
			Processed:  true,
			Status:     entities.StatusPerformed,
		}
		if i < len(doctors) {
			exam.ResponsibleDoctorID = &doctors[i].ID
		}
		if outcome, err := examRepo.Insert(ctx, exam); err != nil {
			log.Printf("Failed to create exam %s: %v", exam.ExamNumber, err)
		} else {
			log.Printf("Exam %s: %s", exam.ExamNumber, outcome)
		}

		// Link a report to the first exam, leave one pending
		if i == 0 {
			report := &entities.Report{
				ID:         uuid.New().String(),
				FilePath:   fmt.Sprintf("/mnt/exams/ECG-2024-%03d.pdf", i+1),
				ReportDate: dates[i],
			}
			if err := reportRepo.Create(ctx, report); err != nil {
				log.Printf("Failed to create report for %s: %v", exam.ExamNumber, err)
			} else if err := reportRepo.Link(ctx, report.ID, exam.ID, time.Now()); err != nil {
				log.Printf("Failed to link report for %s: %v", exam.ExamNumber, err)
			}
		}
	}

	pending := &entities.Report{
		ID:         uuid.New().String(),
		FilePath:   "/mnt/exams/ECG-2024-099.pdf",
		ReportDate: "2024-03-02",
	}
	if err := reportRepo.Create(ctx, pending); err != nil {
		log.Printf("Failed to create pending report: %v", err)
	}

	log.Println("Seeding complete")
}

// seedToken converts an ISO date to the vendor's DDMMYYYY filename token
func seedToken(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return "01012024"
	}
	return t.Format("02012006")
}
