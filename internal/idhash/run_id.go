package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"options-edge-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id: SHA256 over the
// canonical JSON of the full parameter set (struct fields in
// declaration order, map keys sorted). Returns hex-encoded hash
// (64 characters).
//
// Every field participates — strategy, window, each engine knob, each
// robustness policy setting — so two submissions share an ID only when
// they are identical in full, while identical re-submissions always
// map back to the same run. That is what lets the orchestrator
// coalesce duplicates instead of starting a second suite.
func ComputeRunID(params domain.RunParams) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Marshal only fails on unrepresentable floats; fall back to a
		// deterministic textual form rather than losing the ID.
		data = []byte(fmt.Sprintf("%+v", params))
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
