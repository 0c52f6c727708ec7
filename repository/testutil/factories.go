package testutil

import (
	"time"

	"github.com/Pikkuherkko/HH-Lotto/models"
)

// CreateTestEntry creates a journal entry with default values
func CreateTestEntry(participant models.Participant, amount int64) *models.Entry {
	return &models.Entry{
		Participant: participant,
		Amount:      amount,
		EnteredAt:   time.Now().UTC(),
	}
}

// CreateTestWinner creates a winner record with default values
func CreateTestWinner(winner models.Participant, amount int64, requestID string) *models.WinnerRecord {
	return &models.WinnerRecord{
		Winner:    winner,
		Amount:    amount,
		RequestID: requestID,
		DrawnAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// CreateTestTransaction creates an account transaction with default values
func CreateTestTransaction(address models.Participant, transactionType models.TransactionType) *models.AccountTransaction {
	return &models.AccountTransaction{
		Address:         address,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
