package callback

import "strings"

// IdentityDelimiter separates the opaque state from the identity hint it may carry.
const IdentityDelimiter = "|"

// ResolveIdentity returns the identity the callback belongs to.
// When state contains the delimiter, everything after its first occurrence wins over
// email, even when that remainder is empty.
func ResolveIdentity(email, state string) string {
	if _, identity, found := strings.Cut(state, IdentityDelimiter); found {
		return identity
	}
	return email
}
