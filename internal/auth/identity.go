package auth

import (
	"context"
	"strings"
)

// Identity is the signed-in user that remote records are scoped to.
type Identity struct {
	UserID string
	Email  string
}

// Provider supplies the current identity. A nil identity with a nil error
// means nobody is signed in.
type Provider interface {
	Current(ctx context.Context) (*Identity, error)
}

// Static returns a fixed identity, or none when userID is blank.
type Static struct {
	UserID string
}

func (s Static) Current(context.Context) (*Identity, error) {
	id := strings.TrimSpace(s.UserID)
	if id == "" {
		return nil, nil
	}
	return &Identity{UserID: id}, nil
}

// Chain asks each provider in turn and returns the first identity found.
type Chain []Provider

func (c Chain) Current(ctx context.Context) (*Identity, error) {
	var firstErr error
	for _, p := range c {
		id, err := p.Current(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, firstErr
}
