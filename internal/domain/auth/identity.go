// Package auth implements bearer token issuance and verification and the
// gate that turns a credential header into a verified Identity.
package auth

// Identity is a verified username extracted from a token.
//
// The zero value is the anonymous identity. Non-zero identities are only
// produced by Codec.Verify (and therefore Gate.Authenticate), so a value of
// this type reaching the order service has always passed signature checks.
type Identity struct {
	username string
}

// String returns the username bound to the identity.
func (i Identity) String() string {
	return i.username
}

// IsZero reports whether i is the anonymous identity.
func (i Identity) IsZero() bool {
	return i.username == ""
}
