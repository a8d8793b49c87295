package cli

import (
	"context"

	"umclient/internal/client/api"
)

// Users lists accounts, optionally filtered by a search term.
func (a *App) Users(ctx context.Context, search string) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	list, err := a.api.ListUsers(ctx, api.ListUsersParams{
		Page:     1,
		PageSize: 20,
		Search:   search,
	})
	if err != nil {
		return a.reportErr(err)
	}

	a.println(titleStyle.Render("Users"), mutedStyle.Render("total:"), list.Total)
	for _, u := range list.Users {
		line := "  " + u.DisplayName() + " <" + u.Email + ">"
		if u.Status != "active" {
			line += " " + badgeStyle.Render(u.Status)
		}
		a.println(line)
	}
	return nil
}
