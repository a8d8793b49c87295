package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context, allDevices bool) error
	WhoAmI(ctx context.Context) error
	Users(ctx context.Context, search string) error
	Notifications(ctx context.Context, unreadOnly bool) error
	MarkAllRead(ctx context.Context) error
	Sessions(ctx context.Context) error
	RevokeSession(ctx context.Context, id string) error
	RevokeAllSessions(ctx context.Context) error
	Stats(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	CopyToken() error
}

// runREPL starts a simple read-eval-print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("um %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, users [search], notifications [unread], readall, sessions, revoke <id>, revokeall, stats, passwd, copytoken, logout [all], exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx, len(args) > 0 && args[0] == "all")

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "users":
			search := ""
			if len(args) > 0 {
				search = args[0]
			}
			_ = a.Users(ctx, search)

		case "notifications":
			_ = a.Notifications(ctx, len(args) > 0 && args[0] == "unread")

		case "readall":
			_ = a.MarkAllRead(ctx)

		case "sessions":
			_ = a.Sessions(ctx)

		case "revoke":
			if len(args) == 0 {
				printlnFn("Usage: revoke <session-id>")
				continue
			}
			_ = a.RevokeSession(ctx, args[0])

		case "revokeall":
			_ = a.RevokeAllSessions(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "passwd":
			_ = a.ChangePassword(ctx)

		case "copytoken":
			_ = a.CopyToken()

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
