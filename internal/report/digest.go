// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// EvidenceDigest returns the SHA-256 of the RFC 8785 canonical JSON of the
// tiered evidence. Equal evidence gives equal digests regardless of the
// order hits were aggregated in.
func EvidenceDigest(sources types.SourcesByTier) (string, error) {
	raw, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("marshaling evidence: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing evidence: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
