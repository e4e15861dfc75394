package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/reminder"
)

type reminderRow struct {
	ID            string    `db:"id"`
	FeePlanID     string    `db:"fee_plan_id"`
	InstallmentID string    `db:"installment_id"`
	StudentID     string    `db:"student_id"`
	HouseholdID   string    `db:"household_id"`
	Level         string    `db:"level"`
	IssuedOn      core.Date `db:"issued_on"`
	IssuedAt      time.Time `db:"issued_at"`
}

type channelRow struct {
	ReminderID string      `db:"reminder_id"`
	Position   int         `db:"position"`
	Kind       string      `db:"kind"`
	Recipient  string      `db:"recipient"`
	Subject    null.String `db:"subject"`
	Body       string      `db:"body"`
	Status     string      `db:"status"`
}

func (row channelRow) attempt() reminder.ChannelAttempt {
	return reminder.ChannelAttempt{
		Message: reminder.Message{
			Kind:      reminder.ChannelKind(row.Kind),
			Recipient: row.Recipient,
			Subject:   row.Subject.String,
			Body:      row.Body,
		},
		Status: reminder.DeliveryStatus(row.Status),
	}
}

func (row reminderRow) record(chans []channelRow) reminder.Record {
	rec := reminder.Record{
		ID:            row.ID,
		FeePlanID:     row.FeePlanID,
		InstallmentID: row.InstallmentID,
		StudentID:     row.StudentID,
		HouseholdID:   row.HouseholdID,
		Level:         reminder.Level(row.Level),
		IssuedOn:      row.IssuedOn,
		IssuedAt:      row.IssuedAt.UTC(),
		Channels:      make([]reminder.ChannelAttempt, 0, len(chans)),
	}
	for _, ch := range chans {
		rec.Channels = append(rec.Channels, ch.attempt())
	}
	return rec
}

const (
	reminderColumns = "id, fee_plan_id, installment_id, student_id, household_id, level, issued_on, issued_at"
	channelColumns  = "reminder_id, position, kind, recipient, subject, body, status"
)

type journalRepository struct {
	db *sqlx.DB
}

var _ reminder.Journal = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository(db *sqlx.DB) reminder.Journal {
	return &journalRepository{db: db}
}

// IssueRecord inserts the reminder row first, then delivers and inserts the channels in the same transaction.
// The unique (installment_id, level, issued_on) index holds any other insert of the same key, from any
// connection, until this transaction ends; it then fails as a duplicate.
func (repo journalRepository) IssueRecord(ctx context.Context, r reminder.Record, deliver func() []reminder.ChannelAttempt) (reminder.Record, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := tx.Rebind("INSERT INTO reminders (" + reminderColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		_, err := tx.ExecContext(ctx, q, r.ID, r.FeePlanID, r.InstallmentID, r.StudentID, r.HouseholdID, string(r.Level), r.IssuedOn, r.IssuedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return core.NewConflictError(reminder.EntityReminder, r.ID, reminder.ReasonAlreadyIssued)
			}
			return core.NewInternalError(err, "inserting reminder")
		}

		if deliver != nil {
			r.Channels = deliver()
		}
		if r.Channels == nil {
			r.Channels = []reminder.ChannelAttempt{}
		}

		q = tx.Rebind("INSERT INTO reminder_channels (" + channelColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
		for i, ch := range r.Channels {
			subject := null.NewString(ch.Subject, ch.Subject != "")
			if _, err = tx.ExecContext(ctx, q, r.ID, i, string(ch.Kind), ch.Recipient, subject, ch.Body, string(ch.Status)); err != nil {
				return core.NewInternalError(err, "inserting reminder channel")
			}
		}
		return nil
	})
	if err != nil {
		return reminder.Record{}, err
	}
	return r, nil
}

func (repo journalRepository) HasRecord(ctx context.Context, key reminder.Key) (bool, error) {
	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM reminders WHERE installment_id = ? AND level = ? AND issued_on = ?")
	if err := repo.db.GetContext(ctx, &n, q, key.InstallmentID, string(key.Level), key.Day); err != nil {
		return false, core.NewInternalError(err, "checking reminder")
	}
	return n > 0, nil
}

func (repo journalRepository) FilterRecords(ctx context.Context, filter reminder.QueryFilter) ([]reminder.Record, error) {
	var (
		conds []string
		args  []interface{}
	)
	where := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if filter.HouseholdID != "" {
		where("household_id = ?", filter.HouseholdID)
	}
	if filter.StudentID != "" {
		where("student_id = ?", filter.StudentID)
	}
	if filter.FeePlanID != "" {
		where("fee_plan_id = ?", filter.FeePlanID)
	}
	if filter.Level != "" {
		where("level = ?", string(filter.Level))
	}
	// ISO dates compare lexically
	if !filter.From.IsZero() {
		where("issued_on >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		where("issued_on <= ?", filter.To)
	}

	q := "SELECT " + reminderColumns + " FROM reminders"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY issued_at DESC, id DESC"

	var rows []reminderRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewInternalError(err, "selecting reminders")
	}
	if len(rows) == 0 {
		return []reminder.Record{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	q, args, err := sqlx.In("SELECT "+channelColumns+" FROM reminder_channels WHERE reminder_id IN (?) ORDER BY reminder_id, position", ids)
	if err != nil {
		return nil, core.NewInternalError(err, "building channels query")
	}
	var chans []channelRow
	if err = repo.db.SelectContext(ctx, &chans, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewInternalError(err, "selecting reminder channels")
	}
	byRecord := make(map[string][]channelRow, len(rows))
	for _, ch := range chans {
		byRecord[ch.ReminderID] = append(byRecord[ch.ReminderID], ch)
	}

	records := make([]reminder.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record(byRecord[row.ID]))
	}
	return records, nil
}

type rulesRow struct {
	Preventive    int `db:"preventive"`
	DueDay        int `db:"due_day"`
	OverdueLevel1 int `db:"overdue_level_1"`
	OverdueLevel2 int `db:"overdue_level_2"`
}

// the rule configuration is a single row
const rulesRowID = 1

type ruleRepository struct {
	db *sqlx.DB
}

var _ reminder.RuleStore = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(db *sqlx.DB) reminder.RuleStore {
	return &ruleRepository{db: db}
}

func (repo ruleRepository) GetRules(ctx context.Context) (reminder.Rules, bool, error) {
	var row rulesRow
	q := repo.db.Rebind("SELECT preventive, due_day, overdue_level_1, overdue_level_2 FROM reminder_rules WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, rulesRowID); err != nil {
		if err == sql.ErrNoRows {
			return reminder.Rules{}, false, nil
		}
		return reminder.Rules{}, false, core.NewInternalError(err, "getting rules")
	}
	return reminder.Rules{
		Preventive:    row.Preventive,
		DueDay:        row.DueDay,
		OverdueLevel1: row.OverdueLevel1,
		OverdueLevel2: row.OverdueLevel2,
	}, true, nil
}

func (repo ruleRepository) SaveRules(ctx context.Context, rules reminder.Rules) error {
	q := repo.db.Rebind(`INSERT INTO reminder_rules (id, preventive, due_day, overdue_level_1, overdue_level_2, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			preventive = excluded.preventive,
			due_day = excluded.due_day,
			overdue_level_1 = excluded.overdue_level_1,
			overdue_level_2 = excluded.overdue_level_2,
			updated_at = excluded.updated_at`)
	_, err := repo.db.ExecContext(ctx, q, rulesRowID, rules.Preventive, rules.DueDay, rules.OverdueLevel1, rules.OverdueLevel2, core.NowFunc().UTC())
	if err != nil {
		return core.NewInternalError(err, "saving rules")
	}
	return nil
}
