package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/repository"
	"github.com/josh-kwaku/community-bank/internal/service/ledger"
	"github.com/josh-kwaku/community-bank/internal/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, m := range n.sent {
		out[i] = m.RecipientID
	}
	return out
}

func setupEngine(t *testing.T, db *sql.DB) (*ledger.Engine, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	engine := ledger.NewEngine(
		db,
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		n,
		ledger.Config{
			TransferFee:  25,
			TreasuryID:   testutil.TreasuryID,
			MaxRetries:   3,
			BankName:     "Community Bank",
			CurrencyCode: "SAR",
		},
		nil,
	)
	return engine, n
}

func findRecord(records []domain.TransactionRecord, kind domain.TransactionKind) *domain.TransactionRecord {
	for i := range records {
		if records[i].Kind == kind {
			return &records[i]
		}
	}
	return nil
}

func TestWithdraw_MovesToOnHand(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	testutil.SeedAccount(t, db, "x", 10000, 0)

	op, err := engine.Withdraw(ctx, "x", "50.00")
	require.NoError(t, err)

	institution, onHand := testutil.Balances(t, db, "x")
	assert.Equal(t, int64(5000), institution)
	assert.Equal(t, int64(5000), onHand)

	require.Len(t, op.Records, 1)
	assert.Equal(t, domain.KindWithdraw, op.Records[0].Kind)
	assert.Equal(t, int64(-5000), op.Records[0].Amount)
	assert.Equal(t, 1, testutil.CountAccountTransactions(t, db, "x"))
}

func TestDeposit_RoundTripRestoresBalances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	testutil.SeedAccount(t, db, "x", 10000, 300)

	_, err := engine.Withdraw(ctx, "x", "12.34")
	require.NoError(t, err)
	op, err := engine.Deposit(ctx, "x", "12.34")
	require.NoError(t, err)

	institution, onHand := testutil.Balances(t, db, "x")
	assert.Equal(t, int64(10000), institution)
	assert.Equal(t, int64(300), onHand)
	assert.Equal(t, int64(1234), op.Records[0].Amount)
	assert.Equal(t, domain.KindDeposit, op.Records[0].Kind)
}

func TestDeposit_InsufficientCash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)

	testutil.SeedAccount(t, db, "x", 0, 100)

	_, err := engine.Deposit(context.Background(), "x", "5")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	institution, onHand := testutil.Balances(t, db, "x")
	assert.Equal(t, int64(0), institution)
	assert.Equal(t, int64(100), onHand)
	assert.Equal(t, 0, testutil.CountAccountTransactions(t, db, "x"))
}

func TestTransfer_ChargesFeeToTreasury(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, notifier := setupEngine(t, db)
	ctx := context.Background()

	testutil.SeedAccount(t, db, "sender", 10000, 0)

	op, err := engine.Transfer(ctx, "sender", "receiver", "20.00")
	require.NoError(t, err)

	assert.Equal(t, int64(7975), testutil.InstitutionBalance(t, db, "sender"))
	assert.Equal(t, int64(2000), testutil.InstitutionBalance(t, db, "receiver"))
	assert.Equal(t, int64(25), testutil.InstitutionBalance(t, db, testutil.TreasuryID))

	require.Len(t, op.Records, 3)
	persisted, err := repository.NewTransactionRepository(db).GetByOperationID(ctx, op.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)

	out := findRecord(op.Records, domain.KindTransferOut)
	in := findRecord(op.Records, domain.KindTransferIn)
	fee := findRecord(op.Records, domain.KindFee)
	require.NotNil(t, out)
	require.NotNil(t, in)
	require.NotNil(t, fee)
	assert.Equal(t, "sender", out.AccountID)
	assert.Equal(t, int64(-2025), out.Amount)
	assert.Equal(t, "receiver", in.AccountID)
	assert.Equal(t, int64(2000), in.Amount)
	assert.Equal(t, testutil.TreasuryID, fee.AccountID)
	assert.Equal(t, int64(25), fee.Amount)

	var sum int64
	for _, r := range persisted {
		sum += r.Amount
	}
	assert.Zero(t, sum)

	assert.Equal(t, []string{"receiver"}, notifier.recipients())
}

func TestTransfer_InsufficientFundsIncludesFee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, notifier := setupEngine(t, db)

	testutil.SeedAccount(t, db, "sender", 2000, 0)

	_, err := engine.Transfer(context.Background(), "sender", "receiver", "20.00")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, int64(2000), testutil.InstitutionBalance(t, db, "sender"))
	assert.Equal(t, 0, testutil.CountAccountTransactions(t, db, "sender"))
	assert.Equal(t, 0, testutil.CountAccountTransactions(t, db, "receiver"))
	assert.Equal(t, 0, testutil.CountAccountTransactions(t, db, testutil.TreasuryID))
	assert.Empty(t, notifier.recipients())
}

func TestTransfer_SelfTransferRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)

	testutil.SeedAccount(t, db, "x", 10000, 0)

	_, err := engine.Transfer(context.Background(), "x", "x", "1")
	require.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.Equal(t, int64(10000), testutil.InstitutionBalance(t, db, "x"))
}

func TestTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	testutil.SeedAccount(t, db, "sender", 10000, 0)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(ctx, "sender", "receiver", "20.00")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	// 10000 / 2025 = 4 transfers fit.
	assert.Equal(t, 4, succeeded)
	assert.Equal(t, int64(10000-4*2025), testutil.InstitutionBalance(t, db, "sender"))
	assert.Equal(t, int64(4*2000), testutil.InstitutionBalance(t, db, "receiver"))
	assert.Equal(t, int64(4*25), testutil.InstitutionBalance(t, db, testutil.TreasuryID))
}

func TestConcurrentFirstReference_CreatesOneAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.AdminCredit(ctx, "newcomer", "1.00", "admin-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), testutil.InstitutionBalance(t, db, "newcomer"))
	assert.Equal(t, 8, testutil.CountAccountTransactions(t, db, "newcomer"))
}

func TestAdminDebit_ClampsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, notifier := setupEngine(t, db)

	testutil.SeedAccount(t, db, "x", 3000, 0)

	op, err := engine.AdminDebit(context.Background(), "x", "50.00", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), testutil.InstitutionBalance(t, db, "x"))
	require.Len(t, op.Records, 1)
	assert.Equal(t, domain.KindAdminDebit, op.Records[0].Kind)
	assert.Equal(t, int64(-3000), op.Records[0].Amount)
	assert.Contains(t, op.Records[0].Note, "admin-1")
	assert.Equal(t, []string{"x"}, notifier.recipients())
}

func TestAdminCredit_RecordsActor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)

	op, err := engine.AdminCredit(context.Background(), "x", "10", "admin-7")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), testutil.InstitutionBalance(t, db, "x"))
	assert.Equal(t, domain.KindAdminCredit, op.Records[0].Kind)
	assert.Equal(t, int64(1000), op.Records[0].Amount)
	assert.Equal(t, "admin credit by admin-7", op.Records[0].Note)
}

func TestInvalidAmount_NoStateChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	for _, amount := range []string{"abc", "0", "-3", ""} {
		_, err := engine.Withdraw(ctx, "ghost", amount)
		require.ErrorIs(t, err, domain.ErrInvalidAmount, amount)
	}

	assert.False(t, testutil.AccountExists(t, db, "ghost"))
}

func TestStatement_UnknownAccountIsZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)

	st, err := engine.Statement(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.InstitutionBalance)
	assert.Equal(t, int64(0), st.OnHandBalance)
	assert.False(t, testutil.AccountExists(t, db, "ghost"))
}

func TestHistory_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine, _ := setupEngine(t, db)
	ctx := context.Background()

	testutil.SeedAccount(t, db, "x", 10000, 0)
	_, err := engine.Withdraw(ctx, "x", "10")
	require.NoError(t, err)
	_, err = engine.Deposit(ctx, "x", "5")
	require.NoError(t, err)

	records, total, err := engine.History(ctx, "x", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 2)
	assert.Equal(t, domain.KindDeposit, records[0].Kind)
	assert.Equal(t, domain.KindWithdraw, records[1].Kind)
}
