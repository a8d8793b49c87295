package cli

import (
	"errors"

	"umclient/internal/client/api"
)

// reportErr prints a friendly line for the error taxonomy and returns the
// error unchanged.
func (a *App) reportErr(err error) error {
	switch {
	case errors.Is(err, api.ErrSessionTerminated):
		// The interceptor already wiped the store.
		a.printErr("Session expired, please log in again")
	case errors.Is(err, api.ErrConnectivity):
		a.printErr("Server unreachable, try again later")
	default:
		a.printErr("Error: %v", err)
	}
	return err
}
