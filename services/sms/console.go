package smssvc

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core/reminder"
)

// ConsoleService prints text messages instead of sending them.
// No SMS gateway is wired yet.
type ConsoleService struct {
	std           *log.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []reminder.Message
}

var _ reminder.Sender = (*ConsoleService)(nil)

func NewConsoleService(std *log.Logger) *ConsoleService {
	return &ConsoleService{std: std}
}

// NewConsoleServiceMock returns a silent ConsoleService, for tests.
func NewConsoleServiceMock() *ConsoleService {
	return &ConsoleService{disableOutput: true}
}

func (svc *ConsoleService) Send(_ context.Context, msg reminder.Message) error {
	if msg.Kind != reminder.ChannelSMS {
		return errors.Errorf("cannot send %s message by sms", msg.Kind)
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return errors.New("sms recipient is required")
	}

	if !svc.disableOutput {
		svc.std.Printf("SMS to %s: %s\n", msg.Recipient, msg.Body)
	}

	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

// SentMessages returns the messages sent so far, oldest first.
func (svc *ConsoleService) SentMessages() []reminder.Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	msgs := make([]reminder.Message, len(svc.sent))
	copy(msgs, svc.sent)
	return msgs
}
