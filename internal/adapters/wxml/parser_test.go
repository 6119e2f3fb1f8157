package wxml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
	"github.com/vitallink/clinic-records/backend/pkg/utils"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestParseDocument_FullRecord(t *testing.T) {
	content := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<Exam>
  <Patient>
    <Name> Maria da Silva </Name>
    <BirthDate>25/12/1980</BirthDate>
    <Gender>feminino</Gender>
    <NationalID>123.456.789-00</NationalID>
  </Patient>
  <Doctors>
    <Responsible>
      <Name>Dr. Souza</Name>
      <License>CRM 12345</License>
    </Responsible>
    <Requesting>
      <Name>Dra. Lima</Name>
      <License>54321</License>
    </Requesting>
  </Doctors>
</Exam>`)

	record, err := ParseDocument(content, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "Maria da Silva", record.PatientName)
	assert.Equal(t, "1980-12-25", record.BirthDate)
	assert.Equal(t, utils.GenderFemale, record.Gender)
	assert.Equal(t, "12345678900", record.CPF)
	assert.Equal(t, DoctorRef{Name: "Dr. Souza", License: "CRM 12345"}, record.Responsible)
	assert.Equal(t, DoctorRef{Name: "Dra. Lima", License: "54321"}, record.Requesting)
	assert.False(t, record.Responsible.Empty())
}

func TestParseDocument_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, record *ExamRecord)
	}{
		{
			name:    "missing sections",
			content: `<Exam></Exam>`,
			check: func(t *testing.T, record *ExamRecord) {
				assert.Empty(t, record.PatientName)
				assert.Equal(t, "2024-06-01", record.BirthDate)
				assert.Equal(t, utils.GenderOther, record.Gender)
				assert.Empty(t, record.CPF)
				assert.True(t, record.Responsible.Empty())
				assert.True(t, record.Requesting.Empty())
			},
		},
		{
			name: "unparsable birth date falls back to processing date",
			content: `<Exam><Patient><Name>A</Name><BirthDate>31/02/1990</BirthDate>` +
				`<Gender>M</Gender></Patient></Exam>`,
			check: func(t *testing.T, record *ExamRecord) {
				assert.Equal(t, "2024-06-01", record.BirthDate)
				assert.Equal(t, utils.GenderMale, record.Gender)
			},
		},
		{
			name: "doctor with name but no license is unusable",
			content: `<Exam><Doctors><Responsible><Name>Dr. X</Name></Responsible>` +
				`</Doctors></Exam>`,
			check: func(t *testing.T, record *ExamRecord) {
				assert.True(t, record.Responsible.Empty())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseDocument([]byte(tt.content), fixedNow)
			require.NoError(t, err)
			tt.check(t, record)
		})
	}
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty content", content: nil},
		{name: "whitespace only", content: []byte("  \n\t  ")},
		{name: "malformed xml", content: []byte(`<Exam><Patient>`)},
		{name: "not xml at all", content: []byte("PK\x03\x04 binary junk")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseDocument(tt.content, fixedNow)
			assert.Nil(t, record)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeParse))
		})
	}
}
