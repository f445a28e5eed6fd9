package agent

import (
	"context"
	"strings"

	"vigil/internal/guardrail"

	"github.com/shopspring/decimal"
)

// PostureAdvisor proposes trades from a configured posture. It is
// deliberately dumb: "accumulate" proposes a buy every tick and
// "distribute" a sell, leaving all pacing to the guardrail's caps and
// cooldowns. "hold" never proposes anything.
type PostureAdvisor struct {
	Posture string
}

func NewPostureAdvisor(posture string) *PostureAdvisor {
	return &PostureAdvisor{Posture: strings.ToLower(strings.TrimSpace(posture))}
}

func (a *PostureAdvisor) Propose(ctx context.Context, ethBalance, tokenBalance decimal.Decimal) (guardrail.Proposal, error) {
	switch a.Posture {
	case "accumulate":
		return guardrail.Proposal{Action: guardrail.ActionBuy}, nil
	case "distribute":
		return guardrail.Proposal{Action: guardrail.ActionSell}, nil
	default:
		return guardrail.Proposal{Action: guardrail.ActionHold}, nil
	}
}
