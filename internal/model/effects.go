package model

import "github.com/shopspring/decimal"

// BalanceEffect is the change a transaction makes to one account's balance.
type BalanceEffect struct {
	Account string
	Delta   decimal.Decimal
}

// Effects returns the balance changes this transaction implies:
//
//	INCOME   ToAccount   += Amount (if set)
//	EXPENSE  FromAccount -= Amount (if set)
//	TRANSFER FromAccount -= Amount, ToAccount += Amount
//
// Income or expense with no account is untracked cash and yields nothing.
func (t Transaction) Effects() []BalanceEffect {
	var out []BalanceEffect
	switch t.typ {
	case TypeIncome:
		if t.ToAccount != "" {
			out = append(out, BalanceEffect{Account: t.ToAccount, Delta: t.Amount})
		}
	case TypeExpense:
		if t.FromAccount != "" {
			out = append(out, BalanceEffect{Account: t.FromAccount, Delta: t.Amount.Neg()})
		}
	case TypeTransfer:
		if t.FromAccount != "" {
			out = append(out, BalanceEffect{Account: t.FromAccount, Delta: t.Amount.Neg()})
		}
		if t.ToAccount != "" {
			out = append(out, BalanceEffect{Account: t.ToAccount, Delta: t.Amount})
		}
	}
	return out
}

// Reverse negates every effect, undoing them when applied.
func Reverse(effects []BalanceEffect) []BalanceEffect {
	out := make([]BalanceEffect, len(effects))
	for i, e := range effects {
		out[i] = BalanceEffect{Account: e.Account, Delta: e.Delta.Neg()}
	}
	return out
}

// ApplyEffects adds each effect to the matching account balance in place.
// Effects naming an account that no longer exists are skipped.
func ApplyEffects(accounts []Account, effects []BalanceEffect) {
	for _, e := range effects {
		for i := range accounts {
			if accounts[i].Name == e.Account {
				accounts[i].Balance = accounts[i].Balance.Add(e.Delta)
				break
			}
		}
	}
}
