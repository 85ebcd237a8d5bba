// Package auth implements account registration, credential verification and
// session token handling for the sensor hub.
//
// Passwords are stored as bcrypt hashes and never in plaintext. Sessions are
// stateless signed JWTs bound to an account id with a fixed expiry; there is
// no revocation list, a token simply stops validating once expired.
package auth
