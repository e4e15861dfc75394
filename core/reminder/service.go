package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
)

const EntityReminder = "reminder"

var (
	ReasonAlreadyIssued    = "already issued today"
	reasonStudentMissing   = "student not found"
	reasonHouseholdMissing = "household not found"
)

type (
	// Journal is the append-only store of issued records.
	Journal interface {
		// IssueRecord reserves r's Key, calls deliver, then stores r with the attempts deliver returned
		// (r.Channels as is when deliver is nil). The reservation holds across processes sharing the store:
		// when the Key is already taken, deliver is not called and a *core.ConflictError is returned.
		IssueRecord(ctx context.Context, r Record, deliver func() []ChannelAttempt) (Record, error)
		HasRecord(ctx context.Context, key Key) (bool, error)
		// FilterRecords returns matching records, most recently issued first.
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
	}

	FeePlanLister interface {
		FilterFeePlans(ctx context.Context, filter ledger.QueryFilter) ([]ledger.FeePlan, error)
	}

	Directory interface {
		GetStudentByID(ctx context.Context, id string) (household.Student, error)
		GetHouseholdByID(ctx context.Context, id string) (household.Household, error)
	}

	Deps struct {
		Journal    Journal
		RuleStore  RuleStore
		FeePlans   FeePlanLister
		Directory  Directory
		Composer   *Composer
		Dispatcher *Dispatcher
		Logger     core.Logger
	}

	Service struct {
		Deps

		mu       sync.Mutex
		dayLocks map[core.Date]*dayLock
	}

	dayLock struct {
		sync.Mutex
		refs int
	}
)

func NewService(deps Deps) *Service {
	return &Service{Deps: deps, dayLocks: make(map[core.Date]*dayLock)}
}

// GetRules returns the stored rules, or the default ones when none were ever saved.
func (svc *Service) GetRules(ctx context.Context) (Rules, error) {
	rules, ok, err := svc.RuleStore.GetRules(ctx)
	if err != nil {
		return Rules{}, errors.Wrap(err, "getting rules")
	}
	if !ok {
		return DefaultRules(), nil
	}
	return rules, nil
}

// UpdateRules replaces the rules after validating them.
func (svc *Service) UpdateRules(ctx context.Context, rules Rules) (Rules, error) {
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	if err := svc.RuleStore.SaveRules(ctx, rules); err != nil {
		return Rules{}, errors.Wrap(err, "saving rules")
	}
	return rules, nil
}

func (svc *Service) QueryReminders(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return svc.Journal.FilterRecords(ctx, filter)
}

// lockDay serializes runs for the same day within this Service. Runs of other processes are kept
// apart by the Journal, which reserves each Key before anything is sent.
func (svc *Service) lockDay(day core.Date) (unlock func()) {
	svc.mu.Lock()
	l, ok := svc.dayLocks[day]
	if !ok {
		l = new(dayLock)
		svc.dayLocks[day] = l
	}
	l.refs++
	svc.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		svc.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(svc.dayLocks, day)
		}
		svc.mu.Unlock()
	}
}

// ProcessReminders issues the reminders due on `today`: every pending installment whose
// due date is at one of the rules' offsets from today gets one record for the matching level,
// unless such a record was already issued today. Malformed rules abort the run before any write.
// The result only holds the records appended by this run.
func (svc *Service) ProcessReminders(ctx context.Context, today core.Date) (RunResult, error) {
	if today.IsZero() {
		return RunResult{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date is required"})
	}

	unlock := svc.lockDay(today)
	defer unlock()

	rules, err := svc.GetRules(ctx)
	if err != nil {
		return RunResult{}, err
	}
	if err = rules.Validate(); err != nil {
		return RunResult{}, err
	}

	plans, err := svc.FeePlans.FilterFeePlans(ctx, ledger.QueryFilter{})
	if err != nil {
		return RunResult{}, errors.Wrap(err, "querying fee plans")
	}
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})

	rn := &run{
		svc:        svc,
		today:      today,
		students:   make(map[string]*household.Student),
		households: make(map[string]*household.Household),
		result: RunResult{
			Date:    today,
			Records: []Record{},
			Skips:   []Skip{},
		},
	}
	for _, fp := range plans {
		for _, inst := range fp.PendingInstallments() {
			rn.result.Scanned++
			lvl, ok := rules.Classify(inst.DueDate.DaysUntil(today))
			if !ok {
				continue
			}
			if err = rn.issue(ctx, fp, inst, lvl); err != nil {
				return rn.result, err
			}
		}
	}

	svc.Logger.Info(fmt.Sprintf(
		"reminders processed for %s: %d scanned, %d issued, %d skipped",
		today, rn.result.Scanned, rn.result.Processed, rn.result.Skipped,
	))
	return rn.result, nil
}

// run holds the state of one ProcessReminders call.
type run struct {
	svc        *Service
	today      core.Date
	students   map[string]*household.Student // nil: not found
	households map[string]*household.Household
	result     RunResult
}

func (r *run) skip(fp ledger.FeePlan, inst ledger.Installment, lvl Level, reason string) {
	r.result.Skipped++
	r.result.Skips = append(r.result.Skips, Skip{FeePlanID: fp.ID, InstallmentID: inst.ID, Level: lvl, Reason: reason})
}

func (r *run) issue(ctx context.Context, fp ledger.FeePlan, inst ledger.Installment, lvl Level) error {
	svc := r.svc
	key := Key{InstallmentID: inst.ID, Level: lvl, Day: r.today}

	issued, err := svc.Journal.HasRecord(ctx, key)
	if err != nil {
		return errors.Wrap(err, "checking journal")
	}
	if issued {
		r.skip(fp, inst, lvl, ReasonAlreadyIssued)
		return nil
	}

	student, err := r.student(ctx, fp.StudentID)
	if err != nil {
		return err
	}
	if student == nil {
		svc.Logger.Warn(fmt.Sprintf("skipping %s reminder of installment %s: student %s not found", lvl, inst.ID, fp.StudentID))
		r.skip(fp, inst, lvl, reasonStudentMissing)
		return nil
	}
	hh, err := r.household(ctx, student.HouseholdID)
	if err != nil {
		return err
	}
	if hh == nil {
		svc.Logger.Warn(fmt.Sprintf("skipping %s reminder of installment %s: household %s not found", lvl, inst.ID, student.HouseholdID))
		r.skip(fp, inst, lvl, reasonHouseholdMissing)
		return nil
	}

	msgs, err := svc.Composer.Compose(Content{Level: lvl, Household: *hh, Student: *student, FeePlan: fp, Installment: inst})
	if err != nil {
		return errors.Wrap(err, "composing reminder")
	}
	if len(msgs) == 0 {
		svc.Logger.Warn(fmt.Sprintf("household %s has no email nor phone: %s reminder of installment %s journaled without channels", hh.ID, lvl, inst.ID))
	}

	rec := Record{
		ID:            core.NewID(),
		FeePlanID:     fp.ID,
		InstallmentID: inst.ID,
		StudentID:     student.ID,
		HouseholdID:   hh.ID,
		Level:         lvl,
		IssuedOn:      r.today,
		IssuedAt:      core.NowFunc().UTC(),
	}
	rec, err = svc.Journal.IssueRecord(ctx, rec, func() []ChannelAttempt {
		return svc.Dispatcher.Dispatch(ctx, msgs)
	})
	if err != nil {
		if core.IsConflict(err) {
			r.skip(fp, inst, lvl, ReasonAlreadyIssued)
			return nil
		}
		return errors.Wrap(err, "issuing record")
	}
	r.result.Processed++
	r.result.Records = append(r.result.Records, rec)
	return nil
}

func (r *run) student(ctx context.Context, id string) (*household.Student, error) {
	if s, ok := r.students[id]; ok {
		return s, nil
	}
	s, err := r.svc.Directory.GetStudentByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			r.students[id] = nil
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting student")
	}
	r.students[id] = &s
	return &s, nil
}

func (r *run) household(ctx context.Context, id string) (*household.Household, error) {
	if h, ok := r.households[id]; ok {
		return h, nil
	}
	h, err := r.svc.Directory.GetHouseholdByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			r.households[id] = nil
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting household")
	}
	r.households[id] = &h
	return &h, nil
}
