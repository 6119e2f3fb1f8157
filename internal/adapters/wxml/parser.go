package wxml

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
	"github.com/vitallink/clinic-records/backend/pkg/utils"
)

// examDocument mirrors the vendor export structure. Sections are optional;
// absent sections decode to zero values.
type examDocument struct {
	XMLName xml.Name
	Patient patientSection `xml:"Patient"`
	Doctors doctorsSection `xml:"Doctors"`
}

type patientSection struct {
	Name       string `xml:"Name"`
	BirthDate  string `xml:"BirthDate"`
	Gender     string `xml:"Gender"`
	NationalID string `xml:"NationalID"`
}

type doctorsSection struct {
	Responsible doctorSection `xml:"Responsible"`
	Requesting  doctorSection `xml:"Requesting"`
}

type doctorSection struct {
	Name    string `xml:"Name"`
	License string `xml:"License"`
}

// DoctorRef is a doctor block extracted from an export. Either field may be
// empty, in which case no doctor is linked for that role.
type DoctorRef struct {
	Name    string
	License string
}

// Empty reports whether the block carries no usable doctor
func (d DoctorRef) Empty() bool {
	return d.Name == "" || d.License == ""
}

// ExamRecord is the normalized intermediate record produced from one export
// file. Field-level gaps are already defaulted here so downstream code never
// re-checks presence.
type ExamRecord struct {
	PatientName string
	// BirthDate is ISO (YYYY-MM-DD); unparsable vendor dates default to
	// the processing date
	BirthDate string
	// Gender is one of the normalized gender values
	Gender string
	// CPF is digits only, empty when absent
	CPF         string
	Responsible DoctorRef
	Requesting  DoctorRef
}

// ParseDocument parses raw export content into a normalized record. The only
// hard failure is unreadable or structurally malformed content; missing
// fields degrade to defaults.
func ParseDocument(content []byte, now time.Time) (*ExamRecord, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, apperrors.NewParseError("document is empty", nil)
	}

	var doc examDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, apperrors.NewParseError("document is not well-formed", err)
	}

	record := &ExamRecord{
		PatientName: strings.TrimSpace(doc.Patient.Name),
		BirthDate:   normalizeBirthDate(doc.Patient.BirthDate, now),
		Gender:      utils.NormalizeGender(doc.Patient.Gender),
		CPF:         utils.DigitsOnly(doc.Patient.NationalID),
		Responsible: DoctorRef{
			Name:    strings.TrimSpace(doc.Doctors.Responsible.Name),
			License: strings.TrimSpace(doc.Doctors.Responsible.License),
		},
		Requesting: DoctorRef{
			Name:    strings.TrimSpace(doc.Doctors.Requesting.Name),
			License: strings.TrimSpace(doc.Doctors.Requesting.License),
		},
	}

	return record, nil
}

// normalizeBirthDate converts the vendor DD/MM/YYYY date to ISO, defaulting
// to the processing date when the value is missing or unparsable
func normalizeBirthDate(raw string, now time.Time) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := time.Parse("02/01/2006", trimmed); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}
