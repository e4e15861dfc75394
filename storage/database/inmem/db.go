package inmemdb

import (
	"sync"

	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
	"github.com/trezcool/ecolage/core/reminder"
)

type (
	// DB is an in-memory store: one map per entity, each guarded by its own lock.
	DB struct {
		household *householdTable
		student   *studentTable
		feePlan   *feePlanTable
		reminder  *reminderTable
		rules     *rulesTable
	}

	householdTable struct {
		sync.RWMutex
		table map[string]*household.Household
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*household.Student
	}

	feePlanTable struct {
		sync.RWMutex
		table map[string]*ledger.FeePlan
	}

	reminderTable struct {
		sync.RWMutex
		table []reminder.Record // append-only
		index map[reminder.Key]string
	}

	rulesTable struct {
		sync.RWMutex
		rules *reminder.Rules
	}
)

func Open() *DB {
	return &DB{
		household: &householdTable{table: make(map[string]*household.Household)},
		student:   &studentTable{table: make(map[string]*household.Student)},
		feePlan:   &feePlanTable{table: make(map[string]*ledger.FeePlan)},
		reminder:  &reminderTable{index: make(map[reminder.Key]string)},
		rules:     &rulesTable{},
	}
}

// cloneFeePlan copies the installments so that callers never share them with the store.
func cloneFeePlan(fp ledger.FeePlan) ledger.FeePlan {
	insts := make([]ledger.Installment, len(fp.Installments))
	copy(insts, fp.Installments)
	for i := range insts {
		if insts[i].PaidAt != nil {
			paidAt := *insts[i].PaidAt
			insts[i].PaidAt = &paidAt
		}
	}
	fp.Installments = insts
	return fp
}

func cloneRecord(r reminder.Record) reminder.Record {
	chans := make([]reminder.ChannelAttempt, len(r.Channels))
	copy(chans, r.Channels)
	r.Channels = chans
	return r
}
