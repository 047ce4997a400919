// Package token encodes and verifies the signed identity tokens handed out at
// login.
//
// Tokens are compact JWS strings (header.payload.signature) signed with a
// shared HMAC secret. The payload carries the subject (the principal's email),
// issued-at and expiry timestamps, and a random token id. A token stops
// validating the moment its expiry passes; there is no revocation list.
package token
