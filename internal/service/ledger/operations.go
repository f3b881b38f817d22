package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

// Deposit moves amount from the participant's cash into the bank.
func (e *Engine) Deposit(ctx context.Context, accountID, amount string) (*domain.Operation, error) {
	accountID, minor, err := parseRequest(accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	op, err := e.execute(ctx, "deposit", []string{accountID}, func(locked map[string]*domain.Account) ([]posting, error) {
		if locked[accountID].OnHandBalance < minor {
			return nil, domain.ErrInsufficientFunds
		}
		return []posting{{
			accountID:   accountID,
			kind:        domain.KindDeposit,
			institution: minor,
			onHand:      -minor,
			note:        "deposit",
		}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit completed",
		"operation_id", op.ID,
		"account_id", accountID,
		"amount", minor,
	)
	return op, nil
}

// Withdraw moves amount from the bank to the participant's cash.
func (e *Engine) Withdraw(ctx context.Context, accountID, amount string) (*domain.Operation, error) {
	accountID, minor, err := parseRequest(accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	op, err := e.execute(ctx, "withdraw", []string{accountID}, func(locked map[string]*domain.Account) ([]posting, error) {
		if locked[accountID].InstitutionBalance < minor {
			return nil, domain.ErrInsufficientFunds
		}
		return []posting{{
			accountID:   accountID,
			kind:        domain.KindWithdraw,
			institution: -minor,
			onHand:      minor,
			note:        "withdraw",
		}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdraw completed",
		"operation_id", op.ID,
		"account_id", accountID,
		"amount", minor,
	)
	return op, nil
}

// Transfer moves amount between institution balances and charges the
// configured fee to the sender, crediting it to the treasury account.
func (e *Engine) Transfer(ctx context.Context, senderID, receiverID, amount string) (*domain.Operation, error) {
	senderID, minor, err := parseRequest(senderID, amount)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, fmt.Errorf("Transfer: receiver: %w", domain.ErrInvalidParticipant)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	fee := e.cfg.TransferFee
	treasuryID := e.cfg.TreasuryID
	ids := []string{senderID, receiverID, treasuryID}

	op, err := e.execute(ctx, "transfer", ids, func(locked map[string]*domain.Account) ([]posting, error) {
		if locked[senderID].InstitutionBalance < minor+fee {
			return nil, domain.ErrInsufficientFunds
		}
		postings := []posting{
			{
				accountID:   senderID,
				kind:        domain.KindTransferOut,
				institution: -(minor + fee),
				note:        fmt.Sprintf("transfer to %s", receiverID),
			},
			{
				accountID:   receiverID,
				kind:        domain.KindTransferIn,
				institution: minor,
				note:        fmt.Sprintf("transfer from %s", senderID),
			},
		}
		if fee > 0 {
			postings = append(postings, posting{
				accountID:   treasuryID,
				kind:        domain.KindFee,
				institution: fee,
				note:        fmt.Sprintf("transfer fee from %s", senderID),
			})
		}
		return postings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	logging.FromContext(ctx).Info("transfer completed",
		"operation_id", op.ID,
		"sender_id", senderID,
		"receiver_id", receiverID,
		"amount", minor,
		"fee", fee,
	)

	e.notifier.Notify(ctx, domain.Notification{
		RecipientID: receiverID,
		Message:     fmt.Sprintf("Incoming transfer from %s\nAmount: %s", senderID, e.format(minor)),
	})
	return op, nil
}

// AdminCredit issues amount into the institution balance of accountID.
func (e *Engine) AdminCredit(ctx context.Context, accountID, amount, actorID string) (*domain.Operation, error) {
	accountID, minor, err := parseRequest(accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("AdminCredit: %w", err)
	}

	op, err := e.execute(ctx, "admin_credit", []string{accountID}, func(map[string]*domain.Account) ([]posting, error) {
		return []posting{{
			accountID:   accountID,
			kind:        domain.KindAdminCredit,
			institution: minor,
			note:        fmt.Sprintf("admin credit by %s", actorID),
		}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("AdminCredit: %w", err)
	}

	logging.FromContext(ctx).Info("admin credit completed",
		"operation_id", op.ID,
		"account_id", accountID,
		"actor_id", actorID,
		"amount", minor,
	)

	e.notifier.Notify(ctx, domain.Notification{
		RecipientID: accountID,
		Message:     fmt.Sprintf("%s was added to your account by the administrators of %s", e.format(minor), e.cfg.BankName),
	})
	return op, nil
}

// AdminDebit removes up to amount from the institution balance of accountID.
// The debit is clamped to the available balance and the record carries the
// amount actually removed.
func (e *Engine) AdminDebit(ctx context.Context, accountID, amount, actorID string) (*domain.Operation, error) {
	accountID, minor, err := parseRequest(accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("AdminDebit: %w", err)
	}

	op, err := e.execute(ctx, "admin_debit", []string{accountID}, func(locked map[string]*domain.Account) ([]posting, error) {
		debit := min(minor, locked[accountID].InstitutionBalance)
		return []posting{{
			accountID:   accountID,
			kind:        domain.KindAdminDebit,
			institution: -debit,
			note:        fmt.Sprintf("admin debit by %s", actorID),
		}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("AdminDebit: %w", err)
	}

	removed := -op.Records[0].Amount
	logging.FromContext(ctx).Info("admin debit completed",
		"operation_id", op.ID,
		"account_id", accountID,
		"actor_id", actorID,
		"requested", minor,
		"amount", removed,
	)

	e.notifier.Notify(ctx, domain.Notification{
		RecipientID: accountID,
		Message:     fmt.Sprintf("%s was removed from your account by the administrators of %s", e.format(removed), e.cfg.BankName),
	})
	return op, nil
}

// parseRequest validates the amount before anything else so that malformed
// input never reaches storage. It returns the trimmed account id.
func parseRequest(accountID, amount string) (string, int64, error) {
	minor, err := domain.ParseAmount(amount)
	if err != nil {
		return "", 0, err
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", 0, domain.ErrInvalidParticipant
	}
	return accountID, minor, nil
}
