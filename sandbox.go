package talo

import (
	"context"
	"net/http"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

// Sandbox groups calls only the sandbox environment accepts.
type Sandbox struct {
	exec *core.Executor
}

// SimulateCvuTransfer credits cvu with a simulated incoming transfer. The
// faucet answers without the usual success envelope.
func (s *Sandbox) SimulateCvuTransfer(ctx context.Context, cvu string, req schema.FaucetRequest) (schema.FaucetResponse, error) {
	id, err := identifier("cvu", cvu)
	if err != nil {
		return schema.FaucetResponse{}, err
	}
	var out schema.FaucetResponse
	if err := s.exec.Do(ctx, core.Call{Method: http.MethodPost, Path: "/cvu/" + id + "/faucet", Body: req}, &out); err != nil {
		return schema.FaucetResponse{}, err
	}
	return out, nil
}
