package cli

import "context"

// Logout revokes the backend session (or every device session) and clears
// the local store. The local wipe happens even when the backend call fails:
// a dead session on this machine beats a live one the user thinks is gone.
func (a *App) Logout(ctx context.Context, allDevices bool) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	if err := a.api.Logout(ctx, allDevices); err != nil {
		a.printErr("Server logout failed: %v", err)
	}
	a.store.Logout()
	a.printOK("Logged out")
	return nil
}
