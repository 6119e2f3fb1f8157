package entities

import (
	"time"
)

// Doctor represents a physician referenced by exams, either as the
// responsible or the requesting doctor
type Doctor struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	// CRM is the medical license number, digits only, and is the
	// uniqueness key for doctors
	CRM       string    `json:"crm" db:"crm"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
