package cli

import "context"

// WhoAmI prints the stored profile and refreshes it from the backend.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	user, err := a.api.Me(ctx)
	if err != nil {
		return a.reportErr(err)
	}
	a.store.SetUser(user)

	a.println(titleStyle.Render(user.DisplayName()))
	a.printf("  email:    %s", user.Email)
	if user.Username != "" {
		a.printf("  username: %s", user.Username)
	}
	a.printf("  status:   %s", user.Status)
	a.printf("  verified: %v", user.EmailVerified)
	for _, r := range user.Roles {
		a.printf("  role:     %s", r.Name)
	}
	return nil
}
