// Package shared wires the storage, services and delivery channels used by both the API and the admin CLI.
package shared

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
	"github.com/trezcool/ecolage/core/reminder"
	"github.com/trezcool/ecolage/core/stats"
	emailsvc "github.com/trezcool/ecolage/services/email"
	smssvc "github.com/trezcool/ecolage/services/sms"
	"github.com/trezcool/ecolage/storage/database"
	inmemdb "github.com/trezcool/ecolage/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ecolage/storage/database/sqlx"
)

type (
	Stores struct {
		DB         *sqlx.DB // nil with in-memory storage
		Households household.Repository
		FeePlans   ledger.Repository
		Journal    reminder.Journal
		Rules      reminder.RuleStore
	}

	Services struct {
		Households *household.Service
		Ledger     *ledger.Service
		Reminders  *reminder.Service
		Stats      *stats.Aggregator
	}
)

// Close releases the database, if any.
func (st Stores) Close() error {
	if st.DB == nil {
		return nil
	}
	return st.DB.Close()
}

func NewMemoryStores() Stores {
	db := inmemdb.Open()
	return Stores{
		Households: inmemdb.NewHouseholdRepository(db),
		FeePlans:   inmemdb.NewFeePlanRepository(db),
		Journal:    inmemdb.NewJournalRepository(db),
		Rules:      inmemdb.NewRuleRepository(db),
	}
}

func NewSQLStores(db *sqlx.DB) Stores {
	return Stores{
		DB:         db,
		Households: sqlxrepos.NewHouseholdRepository(db),
		FeePlans:   sqlxrepos.NewFeePlanRepository(db),
		Journal:    sqlxrepos.NewJournalRepository(db),
		Rules:      sqlxrepos.NewRuleRepository(db),
	}
}

// OpenStores opens the storage selected by the configuration.
// With SQL storage, the database is created if needed, then migrated.
func OpenStores(conf *core.Config) (Stores, error) {
	switch conf.Storage {
	case core.StorageMemory:
		return NewMemoryStores(), nil
	case core.StorageSQL:
		if err := database.CreateIfNotExist(conf); err != nil {
			return Stores{}, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return Stores{}, err
		}
		if err = database.Migrate(db, database.DialectPostgres); err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		return NewSQLStores(sqlx.NewDb(db, conf.Database.Engine)), nil
	default:
		return Stores{}, errors.Errorf("unknown storage %q", conf.Storage)
	}
}

// NewSenders returns the email and sms senders: console ones in debug mode, Sendgrid for emails otherwise.
func NewSenders(conf *core.Config, std *log.Logger) (email, sms reminder.Sender) {
	if conf.Debug {
		return emailsvc.NewConsoleService(std, conf), smssvc.NewConsoleService(std)
	}
	return emailsvc.NewSendgridService(conf), smssvc.NewConsoleService(std)
}

func NewServices(conf *core.Config, logger core.Logger, stores Stores, email, sms reminder.Sender) (*Services, error) {
	validate := core.NewValidator()

	format, err := core.NewFormatter(conf.Locale, conf.Currency)
	if err != nil {
		return nil, errors.Wrap(err, "creating formatter")
	}
	composer, err := reminder.NewComposer(format, conf.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "creating composer")
	}

	return &Services{
		Households: household.NewService(stores.Households, validate),
		Ledger:     ledger.NewService(stores.FeePlans, stores.Households, validate),
		Reminders: reminder.NewService(reminder.Deps{
			Journal:    stores.Journal,
			RuleStore:  stores.Rules,
			FeePlans:   stores.FeePlans,
			Directory:  stores.Households,
			Composer:   composer,
			Dispatcher: reminder.NewDispatcher(logger, email, sms),
			Logger:     logger,
		}),
		Stats: stats.NewAggregator(stores.Households, stores.FeePlans, stores.Journal),
	}, nil
}
