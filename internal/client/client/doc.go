// Package client is the FoundationAuth gRPC client used by the CLI.
//
// GRPCClient wraps api.Client, keeps the session token
// returned by Login in memory and attaches it as "authorization: Bearer"
// metadata on every call through a unary interceptor. gRPC status codes are
// mapped to the sentinel errors in errors.go so callers can match them with
// errors.Is; the server's message is preserved in the error text.
package client
