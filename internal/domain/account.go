package domain

import "time"

// Account holds the two balances of one participant in minor units.
// InstitutionBalance is money held by the bank, OnHandBalance is cash the
// participant carries. Both are never negative.
type Account struct {
	ParticipantID      string
	InstitutionBalance int64
	OnHandBalance      int64
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Statement is a point-in-time read of an account's balances.
type Statement struct {
	ParticipantID      string
	InstitutionBalance int64
	OnHandBalance      int64
}
