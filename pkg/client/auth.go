package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/roster/pkg/domain"
)

// AuthOutcome discriminates sign-in/sign-out results.
type AuthOutcome int

const (
	// AuthOK means the API accepted the request.
	AuthOK AuthOutcome = iota + 1
	// AuthRejected means the API answered with an error.
	AuthRejected
)

// fallbackMessage is shown when the API rejects without saying why.
const fallbackMessage = "An unexpected error occurred"

// AuthResult is the outcome of SignIn or SignOut when the API answered.
// Callers must branch on Outcome; a transport failure is returned as an
// error instead.
type AuthResult struct {
	Outcome AuthOutcome
	Status  int
	Message string
	// Fields carries per-field errors from a rejected sign-in, if any.
	Fields domain.FieldErrors
}

// OK reports whether the API accepted the request.
func (r AuthResult) OK() bool {
	return r.Outcome == AuthOK
}

// SignIn exchanges credentials for a session token and stores it.
// On rejection the session is left as it was.
func (c *Client) SignIn(ctx context.Context, creds domain.Credentials) (AuthResult, error) {
	body := &form{fields: []domain.Field{
		{Name: "email", Value: creds.Email},
		{Name: "password", Value: creds.Password},
	}}

	var env envelope
	err := c.post(ctx, "/login", body, &env)
	if res, ok := rejected(err); ok {
		return res, nil
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("client.SignIn: %w", err)
	}
	if env.Meta.Token == "" {
		return AuthResult{Outcome: AuthRejected, Status: 200, Message: "sign-in response carried no token"}, nil
	}
	if err := c.session.SetToken(env.Meta.Token); err != nil {
		return AuthResult{}, fmt.Errorf("client.SignIn: %w", err)
	}
	return AuthResult{Outcome: AuthOK, Status: 200, Message: env.Message}, nil
}

// SignOut ends the remote session. The local token is cleared whatever the
// API says, including when the request never reached it.
func (c *Client) SignOut(ctx context.Context) (res AuthResult, err error) {
	defer func() {
		if clearErr := c.session.ClearToken(); clearErr != nil && err == nil {
			err = fmt.Errorf("client.SignOut: %w", clearErr)
		}
	}()

	var env envelope
	reqErr := c.post(ctx, "/logout", nil, &env)
	if r, ok := rejected(reqErr); ok {
		return r, nil
	}
	if reqErr != nil {
		return AuthResult{}, fmt.Errorf("client.SignOut: %w", reqErr)
	}
	return AuthResult{Outcome: AuthOK, Status: 200, Message: env.Message}, nil
}

func rejected(err error) (AuthResult, bool) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return AuthResult{}, false
	}
	msg := httpErr.Message
	if msg == "" {
		msg = fallbackMessage
	}
	return AuthResult{
		Outcome: AuthRejected,
		Status:  httpErr.StatusCode,
		Message: msg,
		Fields:  httpErr.Fields,
	}, true
}
