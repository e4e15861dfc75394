package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/reminder"
)

type journalRepository struct {
	db *reminderTable
}

var _ reminder.Journal = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository(db *DB) reminder.Journal {
	return &journalRepository{db: db.reminder}
}

func (repo *journalRepository) IssueRecord(_ context.Context, r reminder.Record, deliver func() []reminder.ChannelAttempt) (reminder.Record, error) {
	repo.db.Lock()
	if id, ok := repo.db.index[r.Key()]; ok {
		repo.db.Unlock()
		return reminder.Record{}, core.NewConflictError(reminder.EntityReminder, id, reminder.ReasonAlreadyIssued)
	}
	// reserved: HasRecord reports the key while delivering
	repo.db.index[r.Key()] = r.ID
	repo.db.Unlock()

	if deliver != nil {
		r.Channels = deliver()
	}
	r = cloneRecord(r)

	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table = append(repo.db.table, cloneRecord(r))
	return r, nil
}

func (repo *journalRepository) HasRecord(_ context.Context, key reminder.Key) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.index[key]
	return ok, nil
}

func (repo *journalRepository) FilterRecords(_ context.Context, filter reminder.QueryFilter) ([]reminder.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]reminder.Record, 0)
	for _, r := range repo.db.table {
		if filter.Match(r) {
			records = append(records, cloneRecord(r))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].IssuedAt.Equal(records[j].IssuedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})
	return records, nil
}

type ruleRepository struct {
	db *rulesTable
}

var _ reminder.RuleStore = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(db *DB) reminder.RuleStore {
	return &ruleRepository{db: db.rules}
}

func (repo *ruleRepository) GetRules(_ context.Context) (reminder.Rules, bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.rules == nil {
		return reminder.Rules{}, false, nil
	}
	return *repo.db.rules, true, nil
}

func (repo *ruleRepository) SaveRules(_ context.Context, rules reminder.Rules) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.rules = &rules
	return nil
}
