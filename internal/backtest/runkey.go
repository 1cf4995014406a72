package backtest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// runKeyPayload is the exact identity of a run: same payload, same key.
// Field names are part of the contract and must not change.
type runKeyPayload struct {
	AssetID   string      `json:"assetId"`
	FromISO   string      `json:"fromIso"`
	ToISO     string      `json:"toIso"`
	StepHours float64     `json:"stepHours"`
	Costs     CostsConfig `json:"costsConfig"`
	Exit      ExitPolicy  `json:"exitPolicy"`
}

// ComputeRunKey hashes the canonical JSON form of the run identity. The
// payload is round-tripped through an untyped map so object keys always
// serialize sorted, making the key independent of field declaration order.
func ComputeRunKey(assetID, fromISO, toISO string, stepHours float64, costs CostsConfig, exit ExitPolicy) (string, error) {
	payload := runKeyPayload{
		AssetID:   assetID,
		FromISO:   fromISO,
		ToISO:     toISO,
		StepHours: stepHours,
		Costs:     costs,
		Exit:      exit,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal run key payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalize run key payload: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("marshal canonical payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
