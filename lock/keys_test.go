package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferKey_Canonical(t *testing.T) {
	// A→B 和 B→A 必须争同一把锁
	assert.Equal(t, TransferKey("acc-1", "acc-2"), TransferKey("acc-2", "acc-1"))
	assert.Equal(t, "transfer:acc-1:acc-2", TransferKey("acc-2", "acc-1"))

	assert.Equal(t, TransferKey("w-9", "w-10"), TransferKey("w-10", "w-9"))
	assert.NotEqual(t, TransferKey("a", "b"), TransferKey("a", "c"))
}

func TestResourceKeys(t *testing.T) {
	assert.Equal(t, "wallet:balance:42", WalletBalanceKey("42"))
	assert.Equal(t, "user:account:7", UserAccountKey("7"))
	assert.Equal(t, "payment:processing:p-1", PaymentProcessingKey("p-1"))
	assert.Equal(t, "ledger:account:l-1", LedgerAccountKey("l-1"))
}
