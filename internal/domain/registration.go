package domain

import "time"

type RegistrationField string

const (
	FieldName       RegistrationField = "name"
	FieldOrigin     RegistrationField = "origin"
	FieldOccupation RegistrationField = "occupation"
	FieldSalary     RegistrationField = "salary"
)

// RegistrationSteps is the fixed collection order.
var RegistrationSteps = []RegistrationField{FieldName, FieldOrigin, FieldOccupation, FieldSalary}

// Next returns the field collected after f, or "" when f is the last step.
func (f RegistrationField) Next() RegistrationField {
	for i, s := range RegistrationSteps {
		if s == f && i+1 < len(RegistrationSteps) {
			return RegistrationSteps[i+1]
		}
	}
	return ""
}

func (f RegistrationField) IsValid() bool {
	for _, s := range RegistrationSteps {
		if s == f {
			return true
		}
	}
	return false
}

// RegistrationSession is the in-progress profile of one applicant. Expected is
// the next field the applicant must provide.
type RegistrationSession struct {
	ApplicantID string            `json:"applicant_id"`
	Expected    RegistrationField `json:"expected"`
	DisplayName string            `json:"display_name,omitempty"`
	OriginLabel string            `json:"origin_label,omitempty"`
	Occupation  string            `json:"occupation,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
