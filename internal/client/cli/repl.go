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
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
	Refresh(ctx context.Context) error
	Profile(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Cancel(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

// runREPL starts a simple read–eval–print loop for the SubTrack CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
//	Always:
//	  - help             - show available commands
//	  - status           - auth phase and token details
//	  - exit | quit      - leave the program
//
//	Not logged in:
//	  - register         - create an account
//	  - login            - authenticate
//
//	Logged in:
//	  - (l)ist           - dashboard
//	  - add              - create a subscription
//	  - cancel <id>      - cancel a subscription
//	  - remove <id>      - hide a subscription from the dashboard
//	  - whoami | refresh - show / re-fetch the profile
//	  - profile          - edit name and email
//	  - passwd           - change password
//	  - delete-account   - remove the account
//	  - logout           - log out
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", err)
		}
	}

	for {
		printlnFn(fmt.Sprintf("subtrack %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: (l)ist, add, cancel <id>, remove <id>, whoami, refresh, profile, passwd, delete-account, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "status":
			report(a.Status(ctx))

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout", "whoami", "refresh", "profile", "passwd", "delete-account", "l", "list", "add", "cancel", "remove":
			if !a.isLoggedIn(ctx) {
				printlnFn("Please log in first (login or register)")
				continue
			}
			runAuthenticated(ctx, a, cmd, args, report)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if readErr != nil {
			return
		}
	}
}

func runAuthenticated(ctx context.Context, a execIface, cmd string, args []string, report func(error)) {
	switch cmd {
	case "logout":
		report(a.Logout(ctx))
	case "whoami":
		report(a.WhoAmI(ctx))
	case "refresh":
		report(a.Refresh(ctx))
	case "profile":
		report(a.Profile(ctx))
	case "passwd":
		report(a.ChangePassword(ctx))
	case "delete-account":
		report(a.DeleteAccount(ctx))
	case "l", "list":
		report(a.List(ctx))
	case "add":
		report(a.Add(ctx))
	case "cancel", "remove":
		if len(args) == 0 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			return
		}
		if cmd == "cancel" {
			report(a.Cancel(ctx, args[0]))
		} else {
			report(a.Remove(ctx, args[0]))
		}
	}
}
