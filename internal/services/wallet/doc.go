/*
Package wallet maintains per-user balances on top of an append-only ledger.

Every balance change goes through Service.CreateTransaction, which locks the
wallet row, applies the NegativeBalancePolicy, updates the balance and
inserts the ledger row in one database transaction. As a consequence the
balance of a wallet always equals the sum of its ledger rows, which
ReplayBalance recomputes for audits.

Usage:

	svc := wallet.NewService(repo, users, store, wallet.Config{
	    Policy:         wallet.DebitFloorZeroExceptFines,
	    ReferralReward: decimal.NewFromInt(10),
	}, metrics.Collector{}, logger.L())

	w, err := svc.CreateWallet(ctx, userID)

	entry, err := svc.CreateTransaction(ctx, w.ID, wallet.TransactionInput{
	    Amount: decimal.RequireFromString("-25.00"),
	    Type:   models.TransactionFine,
	    Note:   "late cancellation",
	})

Negative balances:

	AllowAll                  any debit is applied
	DebitFloorZeroExceptFines debits may not go below zero, fines may
	RejectAll                 no debit may go below zero

Wallet reads are cached in the TTL store for CacheDuration and invalidated
on every write.
*/
package wallet
