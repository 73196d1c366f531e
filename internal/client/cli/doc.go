// Package cli provides the interactive FoundationAuth command-line client.
//
// It wires configuration, the gRPC client and a read-eval-print loop that
// covers the whole account lifecycle: register, verify, resend, login,
// profile, update, delete, admin and logout. Passwords are read from the
// terminal without echo and wiped after use. The session token lives only in
// memory for the lifetime of the process.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
