package cli

import (
	"context"

	"umclient/internal/common"
)

// ChangePassword prompts for the current and new password and rotates it.
func (a *App) ChangePassword(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	current, err := GetPassword("Current password", a.out)
	if err != nil {
		a.printErr("error: %v", err)
		return err
	}
	defer common.WipeByteArray(current)

	next, err := GetPassword("New password", a.out)
	if err != nil {
		a.printErr("error: %v", err)
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.api.ChangePassword(ctx, string(current), string(next)); err != nil {
		return a.reportErr(err)
	}
	a.printOK("Password changed")
	return nil
}
