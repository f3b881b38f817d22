package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type amountRequest struct {
	Amount string `json:"amount"`
}

func (r amountRequest) Validate() []FieldError {
	if r.Amount == "" {
		return []FieldError{{Field: "amount", Message: "required"}}
	}
	return nil
}

type transferRequest struct {
	TargetID string `json:"target_id"`
	Amount   string `json:"amount"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.TargetID == "" {
		errs = append(errs, FieldError{Field: "target_id", Message: "required"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

type statementDTO struct {
	ParticipantID      string `json:"participant_id"`
	InstitutionBalance int64  `json:"institution_balance"`
	OnHandBalance      int64  `json:"on_hand_balance"`
	Total              int64  `json:"total"`
	Display            struct {
		InstitutionBalance string `json:"institution_balance"`
		OnHandBalance      string `json:"on_hand_balance"`
		Total              string `json:"total"`
	} `json:"display"`
}

func toStatementDTO(s domain.Statement, currency string) statementDTO {
	total := s.InstitutionBalance + s.OnHandBalance
	dto := statementDTO{
		ParticipantID:      s.ParticipantID,
		InstitutionBalance: s.InstitutionBalance,
		OnHandBalance:      s.OnHandBalance,
		Total:              total,
	}
	dto.Display.InstitutionBalance = domain.FormatAmount(s.InstitutionBalance, currency)
	dto.Display.OnHandBalance = domain.FormatAmount(s.OnHandBalance, currency)
	dto.Display.Total = domain.FormatAmount(total, currency)
	return dto
}

type recordDTO struct {
	ID          uuid.UUID `json:"id"`
	OperationID uuid.UUID `json:"operation_id"`
	AccountID   string    `json:"account_id"`
	Kind        string    `json:"kind"`
	Amount      int64     `json:"amount"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRecordDTOs(records []domain.TransactionRecord) []recordDTO {
	dtos := make([]recordDTO, len(records))
	for i, rec := range records {
		dtos[i] = recordDTO{
			ID:          rec.ID,
			OperationID: rec.OperationID,
			AccountID:   rec.AccountID,
			Kind:        string(rec.Kind),
			Amount:      rec.Amount,
			Note:        rec.Note,
			CreatedAt:   rec.CreatedAt,
		}
	}
	return dtos
}

type operationDTO struct {
	OperationID uuid.UUID               `json:"operation_id"`
	Records     []recordDTO             `json:"records"`
	Balances    map[string]statementDTO `json:"balances"`
}

func toOperationDTO(op *domain.Operation, currency string) operationDTO {
	balances := make(map[string]statementDTO, len(op.Balances))
	for id, s := range op.Balances {
		balances[id] = toStatementDTO(s, currency)
	}
	return operationDTO{
		OperationID: op.ID,
		Records:     toRecordDTOs(op.Records),
		Balances:    balances,
	}
}

type historyDTO struct {
	Records []recordDTO `json:"records"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

type applicationDTO struct {
	ID                   uuid.UUID  `json:"id"`
	ApplicantID          string     `json:"applicant_id"`
	DisplayName          string     `json:"display_name"`
	OriginLabel          string     `json:"origin_label"`
	Occupation           string     `json:"occupation"`
	Salary               int64      `json:"salary"`
	Status               string     `json:"status"`
	AccountNumber        *string    `json:"account_number,omitempty"`
	CardExpiry           *string    `json:"card_expiry,omitempty"`
	SubmittedArtifactRef *uuid.UUID `json:"submitted_artifact_ref,omitempty"`
	ArtifactRef          *uuid.UUID `json:"artifact_ref,omitempty"`
	DecidedBy            *string    `json:"decided_by,omitempty"`
	DecidedAt            *time.Time `json:"decided_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`

	Events []applicationEventDTO `json:"events,omitempty"`
}

type applicationEventDTO struct {
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

func toApplicationEventDTOs(events []domain.ApplicationEvent) []applicationEventDTO {
	out := make([]applicationEventDTO, len(events))
	for i, e := range events {
		out[i] = applicationEventDTO{
			Type:      string(e.EventType),
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

func toApplicationDTO(a *domain.Application) applicationDTO {
	return applicationDTO{
		ID:                   a.ID,
		ApplicantID:          a.ApplicantID,
		DisplayName:          a.Profile.DisplayName,
		OriginLabel:          a.Profile.OriginLabel,
		Occupation:           a.Profile.Occupation,
		Salary:               a.Profile.Salary,
		Status:               string(a.Status),
		AccountNumber:        a.AccountNumber,
		CardExpiry:           a.CardExpiry,
		SubmittedArtifactRef: a.SubmittedArtifactRef,
		ArtifactRef:          a.ArtifactRef,
		DecidedBy:            a.DecidedBy,
		DecidedAt:            a.DecidedAt,
		CreatedAt:            a.CreatedAt,
	}
}

type accountDTO struct {
	ParticipantID      string    `json:"participant_id"`
	InstitutionBalance int64     `json:"institution_balance"`
	OnHandBalance      int64     `json:"on_hand_balance"`
	CreatedAt          time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ParticipantID:      a.ParticipantID,
		InstitutionBalance: a.InstitutionBalance,
		OnHandBalance:      a.OnHandBalance,
		CreatedAt:          a.CreatedAt,
	}
}
