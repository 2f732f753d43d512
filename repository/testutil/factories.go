package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"ispwallet/models"
)

// CreateTestSubscriber creates a test subscriber with default values
func CreateTestSubscriber(username string, billingProfileID int64) *models.Subscriber {
	return &models.Subscriber{
		Username:         username,
		ProfileID:        1,
		BillingProfileID: billingProfileID,
		ExpireDate:       time.Now().Add(30 * 24 * time.Hour),
		Status:           "active",
	}
}

// CreateTestBillingProfile creates a test billing profile with a specific price
func CreateTestBillingProfile(name string, price string) *models.BillingProfile {
	return &models.BillingProfile{
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

// CreateTestUserWallet creates a user wallet for a subscriber
func CreateTestUserWallet(userID int64) *models.Wallet {
	return &models.Wallet{
		WalletType:     models.WalletTypeUser,
		UserID:         &userID,
		Name:           "user wallet",
		CurrentBalance: decimal.Zero,
		Status:         models.WalletStatusActive,
		CreatedBy:      "test",
		UpdatedBy:      "test",
	}
}

// CreateTestUserWalletWithBalance creates a user wallet holding a specific balance
func CreateTestUserWalletWithBalance(userID int64, balance string) *models.Wallet {
	w := CreateTestUserWallet(userID)
	w.CurrentBalance = decimal.RequireFromString(balance)
	return w
}

// CreateTestCustomWallet creates a named shared pool wallet
func CreateTestCustomWallet(name string) *models.Wallet {
	return &models.Wallet{
		WalletType:     models.WalletTypeCustom,
		Name:           name,
		CurrentBalance: decimal.Zero,
		Status:         models.WalletStatusActive,
		CreatedBy:      "test",
		UpdatedBy:      "test",
	}
}

// CreateTestTransaction creates a consistent credit ledger entry for a wallet
func CreateTestTransaction(wallet *models.Wallet, amount string) *models.Transaction {
	amt := decimal.RequireFromString(amount)
	return &models.Transaction{
		WalletID:        wallet.ID,
		WalletType:      wallet.WalletType,
		UserID:          wallet.UserID,
		TransactionType: models.TransactionTypeTopUp,
		AmountType:      models.AmountTypeCredit,
		Amount:          amt,
		BalanceBefore:   wallet.CurrentBalance,
		BalanceAfter:    wallet.CurrentBalance.Add(amt),
		Status:          "completed",
		Description:     "test top up",
		CreatedBy:       "test",
	}
}

// CreateTestCashbackTransaction creates a pending cashback entry for a wallet
func CreateTestCashbackTransaction(wallet *models.Wallet, amount string) *models.Transaction {
	tx := CreateTestTransaction(wallet, amount)
	tx.TransactionType = models.TransactionTypeCashback
	status := models.CashbackStatusPending
	tx.CashbackStatus = &status
	tx.Description = "test cashback"
	return tx
}

// CreateTestCashbackGroup creates an enabled cashback group
func CreateTestCashbackGroup(name string) *models.CashbackGroup {
	return &models.CashbackGroup{
		Name:      name,
		Disabled:  false,
		CreatedBy: "test",
		UpdatedBy: "test",
	}
}

// CreateTestUserCashback creates a per-user cashback override
func CreateTestUserCashback(userID, billingProfileID int64, amount string) *models.UserCashback {
	return &models.UserCashback{
		UserID:           userID,
		BillingProfileID: billingProfileID,
		Amount:           decimal.RequireFromString(amount),
		CreatedBy:        "test",
		UpdatedBy:        "test",
	}
}

// CreateTestProfileAmount creates a group-level cashback amount
func CreateTestProfileAmount(groupID, billingProfileID int64, amount string) *models.CashbackProfileAmount {
	return &models.CashbackProfileAmount{
		CashbackGroupID:  groupID,
		BillingProfileID: billingProfileID,
		Amount:           decimal.RequireFromString(amount),
		CreatedBy:        "test",
		UpdatedBy:        "test",
	}
}

// CreateTestActivation creates a completed wallet-funded activation
func CreateTestActivation(subscriberID int64, transactionID *int64) *models.RadiusActivation {
	now := time.Now()
	return &models.RadiusActivation{
		SubscriberID:             subscriberID,
		ActivationType:           models.ActivationTypeRenewal,
		Status:                   models.ActivationStatusCompleted,
		PaymentMethod:            models.PaymentMethodWallet,
		TransactionID:            transactionID,
		PreviousExpireDate:       now,
		PreviousProfileID:        1,
		PreviousBillingProfileID: 1,
		PreviousBalance:          decimal.RequireFromString("100.00"),
		NextExpireDate:           now.Add(30 * 24 * time.Hour),
		CurrentProfileID:         1,
		CurrentBillingProfileID:  1,
		Amount:                   decimal.RequireFromString("50.00"),
		DurationDays:             30,
		Description:              "test renewal",
		CreatedBy:                "test",
		UpdatedBy:                "test",
	}
}
