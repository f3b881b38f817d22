package testutil

import (
	"database/sql"
	"testing"
)

const TreasuryID = "BANK_TREASURY"

// SeedAccount inserts an account with the given balances.
func SeedAccount(t *testing.T, db *sql.DB, id string, institution, onHand int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO accounts (participant_id, institution_balance, on_hand_balance)
		 VALUES ($1, $2, $3)`,
		id, institution, onHand,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
}

// Balances returns (institution, onHand) for id.
func Balances(t *testing.T, db *sql.DB, id string) (int64, int64) {
	t.Helper()

	var institution, onHand int64
	err := db.QueryRow(
		`SELECT institution_balance, on_hand_balance FROM accounts WHERE participant_id = $1`, id,
	).Scan(&institution, &onHand)
	if err != nil {
		t.Fatalf("get balances %s: %v", id, err)
	}
	return institution, onHand
}

func InstitutionBalance(t *testing.T, db *sql.DB, id string) int64 {
	t.Helper()
	institution, _ := Balances(t, db, id)
	return institution
}

func AccountExists(t *testing.T, db *sql.DB, id string) bool {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM accounts WHERE participant_id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("count accounts %s: %v", id, err)
	}
	return n > 0
}

func CountAccountTransactions(t *testing.T, db *sql.DB, accountID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", accountID, err)
	}
	return count
}

func CountNotifications(t *testing.T, db *sql.DB, recipientID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`, recipientID).Scan(&count)
	if err != nil {
		t.Fatalf("count notifications for %s: %v", recipientID, err)
	}
	return count
}
