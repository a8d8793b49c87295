package cli

import "github.com/atotto/clipboard"

// writeClipboard is a test seam for clipboard.WriteAll.
var writeClipboard = clipboard.WriteAll

// CopyToken puts the current access token on the system clipboard, for
// pasting into curl or an API explorer.
func (a *App) CopyToken() error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}

	if err := writeClipboard(a.store.AccessToken()); err != nil {
		a.printErr("Clipboard unavailable: %v", err)
		return err
	}
	a.printOK("Access token copied to clipboard")
	return nil
}
