package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Root prints a welcome line, reports server reachability and runs the REPL
// until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to FoundationAuth CLI (type 'help' for commands)")

	if err := a.service.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
