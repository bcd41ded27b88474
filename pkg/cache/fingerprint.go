package cache

import (
	"encoding/json"
	"sort"

	"lukechampine.com/blake3"
)

// HashContent fingerprints raw file bytes.
func HashContent(content []byte) Fingerprint {
	return blake3.Sum256(content)
}

// HashConfig fingerprints the effective driver configuration. Map key
// order in Go's encoding/json is already sorted lexicographically on
// marshal, so two equal configs always produce byte-identical JSON
// regardless of iteration order — no custom canonicalization needed.
func HashConfig(config map[string]any) (Fingerprint, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return Fingerprint{}, err
	}
	return blake3.Sum256(data), nil
}

// HashRuleVersions fingerprints a ruleID→version map the same way as
// HashConfig, for embedding in log output or a compact equality check;
// FileCacheEntry.Valid still compares the maps directly, since a hash
// collision here would silently accept a stale cache entry.
func HashRuleVersions(versions map[string]string) Fingerprint {
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := blake3.New(32, nil)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(versions[k]))
		h.Write([]byte{0})
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}
