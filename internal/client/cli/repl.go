package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
// The real App satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Ping(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Addresses(ctx context.Context) error
	AddAddress(ctx context.Context) error
	DeleteAddress(ctx context.Context, id string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
//	Not logged in:
//	  - help, ping, register, login, exit | quit
//
//	Logged in:
//	  - help, ping, me, addresses, addaddress, deladdress <id>, logout, exit | quit
//
// Handlers print their own results and errors; the loop only dispatches.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "auth%s> ", statusFn())

		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "error:", err)
			}
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: me, addresses, addaddress, deladdress <id>, ping, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, ping, exit")
			}

		case "ping":
			_ = a.Ping(ctx)

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "addresses", "ls":
			_ = a.Addresses(ctx)

		case "addaddress":
			_ = a.AddAddress(ctx)

		case "deladdress":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: deladdress <id>")
				continue
			}
			_ = a.DeleteAddress(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
