package cli

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"umclient/internal/client/api"
	"umclient/internal/common"
)

// Login prompts for credentials, exchanges them for a session, and stores
// the result atomically.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		a.printErr("error: %v", err)
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		a.printErr("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	deviceName, _ := os.Hostname()
	resp, err := a.api.Login(ctx, email, string(password), uuid.NewString(), deviceName)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrConnectivity):
			a.printErr("Server unreachable, try again later")
		case errors.Is(err, api.ErrSessionTerminated):
			// An unauthenticated login attempt has no refresh token to
			// spend, so a 401 surfaces as a terminated session.
			a.printErr("Invalid email or password")
		default:
			a.printErr("Login failed: %v", err)
		}
		return err
	}

	a.store.Login(resp.User, resp.Tokens.AccessToken, resp.Tokens.RefreshToken)
	a.printOK("Logged in as %s", resp.User.DisplayName())
	return nil
}
