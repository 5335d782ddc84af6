package discord

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/infra/security"
)

// Command outcomes recorded in the invocation metrics.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeDenied   = "denied"
	outcomeError    = "error"
)

// replyCase maps a sentinel error to the fixed message shown to the user.
type replyCase struct {
	err     error
	message string
}

// replyError renders an error at the flow boundary. Validation failures are
// shown verbatim and sentinel outcomes use their fixed messages; anything
// else is logged server-side under a fresh opaque code, and the user sees
// only the code.
func (b *Bot) replyError(r Responder, command string, err error, cases []replyCase) string {
	var validationErr *security.ValidationError
	if errors.As(err, &validationErr) {
		b.replyOrLog(r, command, "❌ "+validationErr.Message)
		return outcomeRejected
	}

	for _, cs := range cases {
		if cs.err == nil {
			continue
		}
		if errors.Is(err, cs.err) {
			b.replyOrLog(r, command, cs.message)
			return outcomeRejected
		}
	}

	code := security.GenerateErrorCode()
	b.logger.Error("command failed",
		zap.String("command", command),
		zap.String("error_code", code),
		zap.Error(err),
	)
	b.replyOrLog(r, command, fmt.Sprintf("🚨 Error %s: the operation could not be completed.", code))
	return outcomeError
}

func (b *Bot) replyOrLog(r Responder, command, content string) {
	if err := r.Reply(content); err != nil {
		b.logger.Warn("failed to deliver reply",
			zap.String("command", command),
			zap.Error(err),
		)
	}
}
