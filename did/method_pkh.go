package did

import (
	"context"

	"github.com/tap-x-project/tap/caip"
)

// PkhResolver implements did:pkh resolution: decode the method-specific-id
// as a CAIP-10 account and construct a minimal DID Document with no
// verification material beyond the chain account itself.
type PkhResolver struct{}

// NewPkhResolver creates a did:pkh MethodResolver.
func NewPkhResolver() *PkhResolver { return &PkhResolver{} }

func (PkhResolver) Resolve(_ context.Context, did DID) (*Document, error) {
	method, msi, err := splitMethod(did)
	if err != nil {
		return nil, err
	}
	if method != "pkh" {
		return nil, newErr("pkh", "not a did:pkh: %s", did)
	}

	account, err := caip.ParseAccountId(msi)
	if err != nil {
		return nil, newErr("pkh", "invalid CAIP-10 account %q: %v", msi, err)
	}

	vmID := string(did) + "#blockchainAccountId"
	return &Document{
		ID: did,
		VerificationMethod: []VerificationMethod{
			{
				ID:                  vmID,
				Type:                "EcdsaSecp256k1RecoveryMethod2020",
				Controller:          string(did),
				BlockchainAccountID: account.String(),
			},
		},
		Authentication: []string{vmID},
	}, nil
}
