package reminder

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Content is everything a reminder message is rendered from.
type Content struct {
	Level       Level
	Household   household.Household
	Student     household.Student
	FeePlan     ledger.FeePlan
	Installment ledger.Installment
}

type templateData struct {
	HouseholdName string
	StudentName   string
	Class         string
	SchoolYear    string
	DueDate       string
	Amount        string
	Signature     string
}

// Composer renders reminder messages. It does no I/O once built: the same Content always renders the same messages.
// Each level has its own tone: a friendly reminder (preventive), a due-today notice (due_day),
// an overdue notice (overdue_level_1) and an urgent warning (overdue_level_2).
type Composer struct {
	format    *core.Formatter
	tmpl      *template.Template
	signature string
}

func NewComposer(format *core.Formatter, signature string) (*Composer, error) {
	tmpl, err := template.New(format.Locale()).
		Option("missingkey=error").
		ParseFS(templatesFS, "templates/"+format.Locale()+".tmpl")
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q reminder templates", format.Locale())
	}
	for _, lvl := range Levels {
		for _, part := range []string{"subject", "email", "sms"} {
			if tmpl.Lookup(string(lvl)+"."+part) == nil {
				return nil, errors.Errorf("missing %q reminder template %s.%s", format.Locale(), lvl, part)
			}
		}
	}
	return &Composer{format: format, tmpl: tmpl, signature: signature}, nil
}

// Compose renders one message per channel available on the household:
// an email if it has an email address, an SMS if it has a phone number.
func (c *Composer) Compose(ct Content) ([]Message, error) {
	if !ct.Level.IsValid() {
		return nil, errors.Errorf("unknown level %q", ct.Level)
	}
	data := templateData{
		HouseholdName: ct.Household.FullName(),
		StudentName:   ct.Student.FullName(),
		Class:         ct.Student.Class,
		SchoolYear:    ct.FeePlan.SchoolYear,
		DueDate:       c.format.Date(ct.Installment.DueDate),
		Amount:        c.format.Amount(ct.Installment.Amount),
		Signature:     c.signature,
	}

	msgs := make([]Message, 0, 2)
	if ct.Household.HasEmail() {
		subject, err := c.render(ct.Level, "subject", data)
		if err != nil {
			return nil, err
		}
		body, err := c.render(ct.Level, "email", data)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, Message{Kind: ChannelEmail, Recipient: ct.Household.Email, Subject: subject, Body: body})
	}
	if ct.Household.HasPhone() {
		body, err := c.render(ct.Level, "sms", data)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, Message{Kind: ChannelSMS, Recipient: ct.Household.Phone, Body: body})
	}
	return msgs, nil
}

func (c *Composer) render(lvl Level, part string, data templateData) (string, error) {
	var buff bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buff, string(lvl)+"."+part, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s.%s", lvl, part)
	}
	return strings.TrimSpace(buff.String()), nil
}
