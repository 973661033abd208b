package caip

import "strings"

// AssetId identifies a fungible or non-fungible asset per CAIP-19:
// "<ChainId>/<asset_namespace>:<asset_reference>", e.g.
// "eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7".
type AssetId struct {
	ChainId        ChainId
	AssetNamespace string
	AssetReference string
}

// ParseAssetId parses a CAIP-19 string.
func ParseAssetId(s string) (AssetId, error) {
	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return AssetId{}, newErr(ErrInvalidAssetId, "missing '/' in %q", s)
	}
	chainPart := s[:slash]
	rest := s[slash+1:]

	chainID, err := ParseChainId(chainPart)
	if err != nil {
		return AssetId{}, newErr(ErrInvalidAssetId, "chain segment: %v", err)
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return AssetId{}, newErr(ErrInvalidAssetId, "missing asset reference in %q", s)
	}
	assetNS, assetRef := rest[:colon], rest[colon+1:]
	if !namespaceRe.MatchString(assetNS) {
		return AssetId{}, newErr(ErrInvalidNamespace, "asset namespace %q", assetNS)
	}
	if assetRef == "" || len(assetRef) > 128 {
		return AssetId{}, newErr(ErrInvalidReference, "asset reference %q", assetRef)
	}

	return AssetId{ChainId: chainID, AssetNamespace: assetNS, AssetReference: assetRef}, nil
}

// String re-assembles the canonical CAIP-19 form.
func (a AssetId) String() string {
	return a.ChainId.String() + "/" + a.AssetNamespace + ":" + a.AssetReference
}
