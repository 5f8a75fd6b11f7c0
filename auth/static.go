package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-talo/core"
)

// StaticCredentials serves a pre-issued bearer token. A forced refresh
// returns the same value; the API decides whether it is still accepted.
type StaticCredentials struct {
	token string
}

func NewStaticCredentials(token string) (*StaticCredentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, core.NewConfigError("auth: static access token is required")
	}
	return &StaticCredentials{token: token}, nil
}

func (s *StaticCredentials) AccessToken(context.Context, bool) (string, error) {
	if s == nil || s.token == "" {
		return "", core.NewDependencyError("auth: static credentials are not configured")
	}
	return s.token, nil
}

var _ core.CredentialProvider = (*StaticCredentials)(nil)
