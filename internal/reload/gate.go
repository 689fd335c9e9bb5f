package reload

import (
	"context"
	"fmt"
)

// Confirmer asks the operator to approve an action
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// Gate holds disruptive actions until the operator approves them
type Gate struct {
	confirmer Confirmer
}

// NewGate creates a gate asking confirmer
func NewGate(confirmer Confirmer) *Gate {
	return &Gate{confirmer: confirmer}
}

// Approve returns nil when the action may proceed and ErrDeclined when the
// operator refused it. Actions that are not disruptive pass without a prompt.
func (g *Gate) Approve(ctx context.Context, j *Job) error {
	if !j.Action.Disruptive() {
		return nil
	}
	if g.confirmer == nil {
		return fmt.Errorf("%w: no confirmer configured", ErrDeclined)
	}
	ok, err := g.confirmer.Confirm(ctx, confirmTitle(j.Action), confirmMessage(j.Action))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeclined, err)
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

func confirmTitle(a Action) string {
	switch a {
	case ActionRefreshAssets:
		return "Refresh assets?"
	case ActionCompileScripts:
		return "Compile scripts?"
	default:
		return "Compile and reload?"
	}
}

func confirmMessage(a Action) string {
	switch a {
	case ActionRefreshAssets:
		return "A remote client requested an asset refresh. Changed assets will be reimported."
	case ActionCompileScripts:
		return "A remote client requested a script compilation. The project will be rebuilt."
	default:
		return "A remote client requested a compilation followed by a domain reload. All in-process state will be discarded."
	}
}
