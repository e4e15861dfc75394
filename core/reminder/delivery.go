package reminder

import (
	"context"
	"fmt"

	"github.com/trezcool/ecolage/core"
)

// Sender transmits messages of one channel kind.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands each message to the Sender of its channel kind and records the outcome.
// There are no retries: a failed attempt stays failed in the journal.
type Dispatcher struct {
	senders map[ChannelKind]Sender
	logger  core.Logger
}

func NewDispatcher(logger core.Logger, email, sms Sender) *Dispatcher {
	d := &Dispatcher{senders: make(map[ChannelKind]Sender, 2), logger: logger}
	if email != nil {
		d.senders[ChannelEmail] = email
	}
	if sms != nil {
		d.senders[ChannelSMS] = sms
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, msgs []Message) []ChannelAttempt {
	attempts := make([]ChannelAttempt, 0, len(msgs))
	for _, msg := range msgs {
		attempt := ChannelAttempt{Message: msg, Status: DeliverySent}
		sender, ok := d.senders[msg.Kind]
		if !ok {
			attempt.Status = DeliveryFailed
			d.logger.Error(fmt.Sprintf("no sender for %s channel", msg.Kind))
		} else if err := sender.Send(ctx, msg); err != nil {
			attempt.Status = DeliveryFailed
			d.logger.Error(fmt.Sprintf("sending %s to %s: %v", msg.Kind, msg.Recipient, err), err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}
