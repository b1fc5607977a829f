package seal

import (
	"encoding/json"
	"errors"
	"fmt"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
	"github.com/piprate/json-gold/ld"
)

// offlineLoader refuses every remote document.
type offlineLoader struct{}

func (offlineLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, "remote contexts are not loaded: "+u)
}

// SealJSONLD takes raw JSON-LD bytes, canonicalizes using URDNA2015
// (via piprate/json-gold), computes a CIDv1 (json-ld codec) using SHA2-256,
// and returns (cidString, canonicalBytes, error).
//
// Contexts must be inline; documents referencing a remote context fail.
// The CID is encoded using base58btc (z prefix).
func SealJSONLD(raw []byte) (string, []byte, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil, err
	}
	return seal(doc)
}

// Stamp seals doc and records the resulting CID as its schema.org
// identifier. The identifier is not part of the sealed content, so stamping
// a document twice yields the same CID.
func Stamp(doc map[string]interface{}) (string, error) {
	unstamped := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k != "identifier" {
			unstamped[k] = v
		}
	}

	// round trip through JSON so json-gold only sees plain JSON values
	raw, err := json.Marshal(unstamped)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON-LD: %w", err)
	}
	cidStr, _, err := SealJSONLD(raw)
	if err != nil {
		return "", err
	}

	doc["identifier"] = cidStr
	return cidStr, nil
}

func seal(doc interface{}) (string, []byte, error) {
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	opts.Algorithm = "URDNA2015"
	opts.DocumentLoader = offlineLoader{}

	normalized, err := proc.Normalize(doc, opts)
	if err != nil {
		return "", nil, err
	}

	nqStr, ok := normalized.(string)
	if !ok {
		return "", nil, errors.New("unexpected normalized output type")
	}
	normalizedBytes := []byte(nqStr)

	multihash, err := mh.Sum(normalizedBytes, mh.SHA2_256, -1)
	if err != nil {
		return "", nil, err
	}

	// CIDv1 with json-ld codec (DagJSON = 0x0129)
	c := cid.NewCidV1(cid.DagJSON, multihash)

	cidStr, err := c.StringOfBase(multibase.Base58BTC)
	if err != nil {
		return "", nil, err
	}

	return cidStr, normalizedBytes, nil
}
