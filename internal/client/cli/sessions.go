package cli

import "context"

// Sessions lists the device sessions the backend tracks for this account.
func (a *App) Sessions(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	list, err := a.api.Sessions(ctx)
	if err != nil {
		return a.reportErr(err)
	}

	a.println(titleStyle.Render("Sessions"), mutedStyle.Render("total:"), list.Total)
	for _, s := range list.Sessions {
		line := "  " + s.ID + " " + s.DeviceType
		if s.DeviceName != "" {
			line += " (" + s.DeviceName + ")"
		}
		if s.IsCurrent {
			line += " " + okStyle.Render("current")
		}
		a.println(line)
	}
	return nil
}

// RevokeSession terminates a single device session by id.
func (a *App) RevokeSession(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	if err := a.api.RevokeSession(ctx, id); err != nil {
		return a.reportErr(err)
	}
	a.printOK("Session %s revoked", id)
	return nil
}

// RevokeAllSessions terminates every other device session.
func (a *App) RevokeAllSessions(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	if err := a.api.RevokeAllSessions(ctx, true); err != nil {
		return a.reportErr(err)
	}
	a.printOK("All other sessions revoked")
	return nil
}
