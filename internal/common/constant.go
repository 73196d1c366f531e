package common

// AuthorizationHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the session token inside the authorization header.
const BearerPrefix = "Bearer "
