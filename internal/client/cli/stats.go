package cli

import "context"

// Stats prints the admin dashboard aggregate.
func (a *App) Stats(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	stats, err := a.api.DashboardStats(ctx)
	if err != nil {
		return a.reportErr(err)
	}

	a.println(titleStyle.Render("Dashboard"))
	a.printf("  users:    %d", stats.TotalUsers)
	a.printf("  sessions: %d", stats.ActiveSessions)
	a.printf("  active:   %d", stats.StatusBreakdown.Active)
	a.printf("  pending:  %d", stats.StatusBreakdown.PendingVerification)
	for _, d := range stats.DailyRegistrations {
		if d.Count > 0 {
			a.printf("  %s: %d signups", d.Date, d.Count)
		}
	}
	return nil
}
