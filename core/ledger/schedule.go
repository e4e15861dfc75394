package ledger

import (
	"github.com/trezcool/ecolage/core"
)

// SplitMonthly splits total into count installments due one calendar month apart, starting at firstDue.
// Every installment gets floor(total/count) cents; the remainder is added to the last one,
// so the amounts always sum up to total.
func SplitMonthly(total core.Money, count int, firstDue core.Date) []NewInstallment {
	if count <= 0 || total <= 0 {
		return nil
	}
	share := total / core.Money(count)
	remainder := total - share*core.Money(count)

	insts := make([]NewInstallment, 0, count)
	for i := 0; i < count; i++ {
		amount := share
		if i == count-1 {
			amount += remainder
		}
		insts = append(insts, NewInstallment{
			DueDate: firstDue.AddMonths(i),
			Amount:  amount,
		})
	}
	return insts
}

// sumInstallments reports false when the sum does not fit in a Money.
func sumInstallments(insts []NewInstallment) (core.Money, bool) {
	var sum core.Money
	for _, inst := range insts {
		if inst.Amount > 0 && sum > core.MaxMoney-inst.Amount {
			return 0, false
		}
		sum += inst.Amount
	}
	return sum, true
}
