package interfaces

import (
	"context"

	"github.com/secmon-lab/moirai/pkg/domain/model"
)

// Notifier receives escalation-rule matches. The engine evaluates rules;
// delivering the escalation (mail, chat, ticket) is the collaborator's job.
type Notifier interface {
	NotifyEscalation(ctx context.Context, risk *model.Risk, rules []model.EscalationRule) error
}
