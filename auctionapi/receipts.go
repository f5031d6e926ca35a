package auctionapi

import (
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/core"
)

// StateHash is the lowercase hex cell hash of a data cell as recorded on receipts.
func StateHash(c *cell.Cell) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%x", c.Hash())
}

// Hash computes the receipt message hash of an inbound message delivered at now.
func (m InboundJSON) Hash(now uint64) (string, error) {
	sender, err := ParseAddress(m.Sender)
	if err != nil {
		return "", fmt.Errorf("sender: %w", err)
	}
	body, err := DecodeBOC(m.BodyBOC)
	if err != nil {
		return "", fmt.Errorf("body: %w", err)
	}
	bodyHash := ""
	if body != nil {
		bodyHash = fmt.Sprintf("%x", body.Hash())
	}
	return core.ComputeMessageHash(FormatAddress(sender), m.Value, m.Bounced, bodyHash, now), nil
}

// ActionsHash computes the receipt hash of an ordered action list.
func ActionsHash(actions []Action) string {
	return core.ComputeActionsHash(CanonicalActions(actions))
}

// ToAction parses an action from its JSON form.
func (a ActionJSON) ToAction() (Action, error) {
	out := Action{Type: a.Type, Mode: a.Mode, Value: a.Value, Bounced: a.Bounced}
	if a.Destination != "" {
		dest, err := ParseAddress(a.Destination)
		if err != nil {
			return Action{}, fmt.Errorf("destination: %w", err)
		}
		out.Destination = dest
	}
	body, err := DecodeBOC(a.BodyBOC)
	if err != nil {
		return Action{}, fmt.Errorf("body: %w", err)
	}
	out.Body = body
	return out, nil
}

// ActionsHashJSON computes the receipt hash of actions as returned by the host.
func ActionsHashJSON(actions []ActionJSON) (string, error) {
	parsed := make([]Action, 0, len(actions))
	for i, a := range actions {
		action, err := a.ToAction()
		if err != nil {
			return "", fmt.Errorf("action %d: %w", i, err)
		}
		parsed = append(parsed, action)
	}
	return ActionsHash(parsed), nil
}
