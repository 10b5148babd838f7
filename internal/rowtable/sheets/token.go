package sheets

import (
	"context"
	"errors"
	"os"
	"strings"
)

// TokenSource yields the bearer token attached to each API request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken returns the same token forever. Tests mostly.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	_ = ctx
	s := strings.TrimSpace(string(t))
	if s == "" {
		return "", errors.New("sheets: empty token")
	}
	return s, nil
}

// EnvToken reads the token from an environment variable on every call.
type EnvToken string

func (t EnvToken) Token(ctx context.Context) (string, error) {
	_ = ctx
	s := strings.TrimSpace(os.Getenv(string(t)))
	if s == "" {
		return "", errors.New("sheets: environment variable " + string(t) + " is empty")
	}
	return s, nil
}

// FileToken re-reads a token file on every call, so an external refresher
// can rotate the token without restarting the engine.
type FileToken string

func (t FileToken) Token(ctx context.Context) (string, error) {
	_ = ctx
	b, err := os.ReadFile(string(t))
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("sheets: token file " + string(t) + " is empty")
	}
	return s, nil
}
