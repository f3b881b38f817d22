package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	KindDeposit     TransactionKind = "deposit"
	KindWithdraw    TransactionKind = "withdraw"
	KindTransferOut TransactionKind = "transfer_out"
	KindTransferIn  TransactionKind = "transfer_in"
	KindFee         TransactionKind = "fee"
	KindAdminCredit TransactionKind = "admin_credit"
	KindAdminDebit  TransactionKind = "admin_debit"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransferOut, KindTransferIn, KindFee, KindAdminCredit, KindAdminDebit:
		return true
	}
	return false
}

// TransactionRecord is an append-only fact. Amount is the signed change to
// the account's institution balance; OperationID groups the records written
// by one ledger operation.
type TransactionRecord struct {
	ID          uuid.UUID
	OperationID uuid.UUID
	AccountID   string
	Kind        TransactionKind
	Amount      int64
	Note        string
	CreatedAt   time.Time
}

// Operation is the result of one committed ledger operation.
type Operation struct {
	ID       uuid.UUID
	Records  []TransactionRecord
	Balances map[string]Statement
}
