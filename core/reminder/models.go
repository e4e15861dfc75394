package reminder

import (
	"time"

	"github.com/trezcool/ecolage/core"
)

// Level is an escalation level.
type Level string

const (
	LevelPreventive    Level = "preventive"
	LevelDueDay        Level = "due_day"
	LevelOverdueLevel1 Level = "overdue_level_1"
	LevelOverdueLevel2 Level = "overdue_level_2"
)

// Levels lists escalation levels in classification priority order.
var Levels = []Level{LevelPreventive, LevelDueDay, LevelOverdueLevel1, LevelOverdueLevel2}

func (l Level) IsValid() bool {
	for _, lvl := range Levels {
		if l == lvl {
			return true
		}
	}
	return false
}

type ChannelKind string

const (
	ChannelEmail ChannelKind = "email"
	ChannelSMS   ChannelKind = "sms"
)

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Message is what a Sender transmits: one rendered message for one recipient.
type Message struct {
	Kind      ChannelKind `json:"kind"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject,omitempty"` // email only
	Body      string      `json:"body"`
}

// ChannelAttempt is a Message along with the outcome of its delivery.
type ChannelAttempt struct {
	Message
	Status DeliveryStatus `json:"status"`
}

// Record is one issued reminder. Records are immutable and only ever appended to the Journal.
type Record struct {
	ID            string           `json:"id"`
	FeePlanID     string           `json:"fee_plan_id"`
	InstallmentID string           `json:"installment_id"`
	StudentID     string           `json:"student_id"`
	HouseholdID   string           `json:"household_id"`
	Level         Level            `json:"level"`
	IssuedOn      core.Date        `json:"issued_on"` // the run's calendar day
	IssuedAt      time.Time        `json:"issued_at"` // UTC
	Channels      []ChannelAttempt `json:"channels"`
}

// Key identifies the at-most-once slot of a record.
func (r Record) Key() Key {
	return Key{InstallmentID: r.InstallmentID, Level: r.Level, Day: r.IssuedOn}
}

// Key is the de-duplication key of the Journal: one record per installment, level and day.
type Key struct {
	InstallmentID string
	Level         Level
	Day           core.Date
}

type QueryFilter struct {
	HouseholdID string    `query:"household_id"`
	StudentID   string    `query:"student_id"`
	FeePlanID   string    `query:"fee_plan_id"`
	Level       Level     `query:"level"`
	From        core.Date `query:"from"` // inclusive, on IssuedOn
	To          core.Date `query:"to"`   // inclusive, on IssuedOn
}

// Match reports whether r satisfies every set filter field.
func (f QueryFilter) Match(r Record) bool {
	if f.HouseholdID != "" && r.HouseholdID != f.HouseholdID {
		return false
	}
	if f.StudentID != "" && r.StudentID != f.StudentID {
		return false
	}
	if f.FeePlanID != "" && r.FeePlanID != f.FeePlanID {
		return false
	}
	if f.Level != "" && r.Level != f.Level {
		return false
	}
	if !f.From.IsZero() && r.IssuedOn.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.IssuedOn.After(f.To) {
		return false
	}
	return true
}

// Skip describes an eligible installment for which no record was issued.
type Skip struct {
	FeePlanID     string `json:"fee_plan_id"`
	InstallmentID string `json:"installment_id"`
	Level         Level  `json:"level"`
	Reason        string `json:"reason"`
}

// RunResult summarizes one ProcessReminders run. Records holds only the records appended by this run.
type RunResult struct {
	Date      core.Date `json:"date"`
	Scanned   int       `json:"scanned"`   // pending installments evaluated
	Processed int       `json:"processed"` // records issued
	Skipped   int       `json:"skipped"`
	Records   []Record  `json:"records"`
	Skips     []Skip    `json:"skips"`
}
