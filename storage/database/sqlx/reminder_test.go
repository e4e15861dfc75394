package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/reminder"
	"github.com/trezcool/ecolage/tests"
)

func newRecord(installmentID string, lvl reminder.Level, day string, issuedAt time.Time, chans ...reminder.ChannelAttempt) reminder.Record {
	if chans == nil {
		chans = []reminder.ChannelAttempt{}
	}
	return reminder.Record{
		ID:            core.NewID(),
		FeePlanID:     "fp-" + installmentID,
		InstallmentID: installmentID,
		StudentID:     "st-" + installmentID,
		HouseholdID:   "hh-" + installmentID,
		Level:         lvl,
		IssuedOn:      core.MustParseDate(day),
		IssuedAt:      issuedAt,
		Channels:      chans,
	}
}

func TestJournalRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewJournalRepository(testutil.PrepareDB(t))
	tstamp := time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC)

	email := reminder.ChannelAttempt{
		Message: reminder.Message{Kind: reminder.ChannelEmail, Recipient: "awa@test.cd", Subject: "Rappel", Body: "Bonjour"},
		Status:  reminder.DeliverySent,
	}
	sms := reminder.ChannelAttempt{
		Message: reminder.Message{Kind: reminder.ChannelSMS, Recipient: "+243 810 000 000", Body: "Rappel"},
		Status:  reminder.DeliveryFailed,
	}

	issue := func(t *testing.T, rec reminder.Record) {
		got, err := repo.IssueRecord(ctx, rec, nil)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	}

	rec1 := newRecord("i1", reminder.LevelPreventive, "2025-08-22", tstamp, email, sms)
	rec2 := newRecord("i1", reminder.LevelDueDay, "2025-09-01", tstamp.AddDate(0, 0, 10))
	rec3 := newRecord("i2", reminder.LevelOverdueLevel1, "2025-09-04", tstamp.AddDate(0, 0, 13), sms)
	for _, rec := range []reminder.Record{rec1, rec2, rec3} {
		issue(t, rec)
	}

	t.Run("duplicate key", func(t *testing.T) {
		dup := newRecord("i1", reminder.LevelPreventive, "2025-08-22", tstamp.Add(time.Hour), email)
		_, err := repo.IssueRecord(ctx, dup, func() []reminder.ChannelAttempt {
			t.Error("delivered a duplicate")
			return nil
		})
		assert.True(t, core.IsConflict(err), "unexpected error: %v", err)

		// nothing of the duplicate is kept
		got, err := repo.FilterRecords(ctx, reminder.QueryFilter{FeePlanID: "fp-i1", Level: reminder.LevelPreventive})
		require.NoError(t, err)
		assert.Equal(t, []reminder.Record{rec1}, got)
	})

	t.Run("same installment and level, another day", func(t *testing.T) {
		other := newRecord("i3", reminder.LevelPreventive, "2025-08-22", tstamp)
		issue(t, other)
		next := newRecord("i3", reminder.LevelPreventive, "2025-08-23", tstamp.AddDate(0, 0, 1))
		issue(t, next)
	})

	hasTests := []struct {
		name string
		key  reminder.Key
		want bool
	}{
		{name: "issued", key: rec1.Key(), want: true},
		{name: "other level", key: reminder.Key{InstallmentID: "i1", Level: reminder.LevelOverdueLevel2, Day: core.MustParseDate("2025-08-22")}, want: false},
		{name: "other day", key: reminder.Key{InstallmentID: "i2", Level: reminder.LevelOverdueLevel1, Day: core.MustParseDate("2025-09-05")}, want: false},
	}
	for _, tt := range hasTests {
		t.Run("has: "+tt.name, func(t *testing.T) {
			got, err := repo.HasRecord(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	filterTests := []struct {
		name   string
		filter reminder.QueryFilter
		want   []reminder.Record
	}{
		{name: "by household", filter: reminder.QueryFilter{HouseholdID: "hh-i1"}, want: []reminder.Record{rec2, rec1}},
		{name: "by student", filter: reminder.QueryFilter{StudentID: "st-i2"}, want: []reminder.Record{rec3}},
		{name: "by level", filter: reminder.QueryFilter{Level: reminder.LevelDueDay}, want: []reminder.Record{rec2}},
		{
			name:   "by period",
			filter: reminder.QueryFilter{HouseholdID: "hh-i1", From: core.MustParseDate("2025-08-23"), To: core.MustParseDate("2025-09-01")},
			want:   []reminder.Record{rec2},
		},
		{name: "no match", filter: reminder.QueryFilter{FeePlanID: "lol"}, want: []reminder.Record{}},
	}
	for _, tt := range filterTests {
		t.Run("filter: "+tt.name, func(t *testing.T) {
			got, err := repo.FilterRecords(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("filter: all, newest first", func(t *testing.T) {
		got, err := repo.FilterRecords(ctx, reminder.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].IssuedAt.After(got[i-1].IssuedAt))
		}
	})
}

func TestRuleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(testutil.PrepareDB(t))

	_, ok, err := repo.GetRules(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, rules := range []reminder.Rules{
		reminder.DefaultRules(),
		{Preventive: -5, DueDay: 0, OverdueLevel1: 2, OverdueLevel2: 10},
	} {
		require.NoError(t, repo.SaveRules(ctx, rules))

		got, ok, err := repo.GetRules(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, rules, got)
	}
}
