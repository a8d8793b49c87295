package cli

import "context"

// Notifications prints the inbox, optionally limited to unread entries.
func (a *App) Notifications(ctx context.Context, unreadOnly bool) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	list, err := a.api.Notifications(ctx, unreadOnly, 1, 20)
	if err != nil {
		return a.reportErr(err)
	}

	a.println(titleStyle.Render("Notifications"), mutedStyle.Render("unread:"), list.UnreadCount)
	for _, n := range list.Notifications {
		marker := "  "
		if !n.Read {
			marker = badgeStyle.Render("* ")
		}
		a.printf("%s%s: %s", marker, n.Title, n.Message)
	}
	return nil
}

// MarkAllRead marks every notification as read and reports the count.
func (a *App) MarkAllRead(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	marked, err := a.api.MarkAllNotificationsRead(ctx)
	if err != nil {
		return a.reportErr(err)
	}
	a.printOK("Marked %d notifications as read", marked)
	return nil
}
