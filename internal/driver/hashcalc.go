package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"pytidy/internal/config"
	"pytidy/internal/version"
)

// Digest is a SHA-256 value.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// combineDigest: H(content || part1 || part2 ...). parts уже в детерминированном порядке.
func combineDigest(content Digest, parts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// ContentDigest hashes file content.
func ContentDigest(content []byte) Digest {
	return sha256.Sum256(content)
}

// ConfigDigest hashes everything besides the content that changes a result:
// the configuration, the tool version and the run mode.
func ConfigDigest(cfg config.Config, analyzeOnly bool) Digest {
	data, err := json.Marshal(struct {
		Config      config.Config `json:"config"`
		Version     string        `json:"version"`
		AnalyzeOnly bool          `json:"analyze_only"`
	}{cfg, version.Version, analyzeOnly})
	if err != nil {
		// NaN в magic_number_whitelist не кодируется в JSON
		data = fmt.Appendf(nil, "%#v|%s|%t", cfg, version.Version, analyzeOnly)
	}
	return sha256.Sum256(data)
}

// ResultKey identifies the cached result of one file.
func ResultKey(content []byte, cfg Digest) Digest {
	return combineDigest(ContentDigest(content), cfg)
}
