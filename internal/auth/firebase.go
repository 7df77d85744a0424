package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrInvalidToken = errors.New("auth: invalid or expired ID token")

// Firebase verifies a stored ID token and returns its user. The Firebase
// client is created on first use.
type Firebase struct {
	CredentialsFile string
	CredentialsJSON string
	IDToken         string

	once   sync.Once
	client *fbauth.Client
	err    error
}

func (f *Firebase) init(ctx context.Context) error {
	f.once.Do(func() {
		var opts []option.ClientOption
		switch {
		case f.CredentialsJSON != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(f.CredentialsJSON)))
		case f.CredentialsFile != "":
			opts = append(opts, option.WithCredentialsFile(f.CredentialsFile))
		}
		app, err := firebase.NewApp(ctx, nil, opts...)
		if err != nil {
			f.err = fmt.Errorf("init firebase: %w", err)
			return
		}
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := app.Auth(initCtx)
		if err != nil {
			f.err = fmt.Errorf("init firebase auth: %w", err)
			return
		}
		f.client = client
	})
	return f.err
}

func (f *Firebase) Current(ctx context.Context) (*Identity, error) {
	token := strings.TrimSpace(f.IDToken)
	if token == "" {
		return nil, nil
	}
	if err := f.init(ctx); err != nil {
		return nil, err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	verified, err := f.client.VerifyIDToken(verifyCtx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if verified.UID == "" {
		return nil, fmt.Errorf("%w: token missing user id", ErrInvalidToken)
	}
	id := &Identity{UserID: verified.UID}
	if email, ok := verified.Claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}
