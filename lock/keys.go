package lock

import "fmt"

// 常用资源 key 构造器。双方参与的资源（转账）必须先按固定顺序
// 规整两个 id，A→B 和 B→A 才会争用同一把锁，这是避免死锁的约定：
// 逻辑上同一对资源永远只有一把锁，不存在两把锁的交叉获取。

func WalletBalanceKey(walletID string) string {
	return "wallet:balance:" + walletID
}

func UserAccountKey(userID string) string {
	return "user:account:" + userID
}

func PaymentProcessingKey(paymentID string) string {
	return "payment:processing:" + paymentID
}

func LedgerAccountKey(accountID string) string {
	return "ledger:account:" + accountID
}

// TransferKey 对任意 a != b 满足 TransferKey(a,b) == TransferKey(b,a)
func TransferKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("transfer:%s:%s", a, b)
}
