// Package host provides the collaborators the remittance ledger consumes
// from its execution environment: authorization, ledger time and call
// correlation.
//
// The ledger never decides who may act as an identity. It asks an
// Authorizer, which fails the whole call when the check does not pass.
// Two authorizers ship with the package:
//
//   - IdentityAuthorizer trusts identities attached to the call context by
//     a trusted front end (WithIdentities)
//   - TokenAuthorizer verifies an HS256 JWT attached to the context
//     (WithToken) whose subject must equal the identity
package host
