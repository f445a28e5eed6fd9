package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrCorruptState marks a persisted record the process cannot safely use.
// It is fatal for the tick that hit it and should page an operator: it means
// durability is broken, not that a policy said no.
var ErrCorruptState = errors.New("corrupt state")

// Migrate upgrades a raw decoded record to the current schema by applying
// single-version transforms in order. Fields the transforms do not know about
// are left untouched, so forward/backward coexistence during a partial
// rollout does not lose data. Migrating an already-current record is a no-op.
func Migrate(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrCorruptState)
	}
	version, ok := schemaVersionOf(raw)
	if !ok {
		return nil, fmt.Errorf("%w: schema_version absent or not an integer", ErrCorruptState)
	}
	if version < 0 {
		return nil, fmt.Errorf("%w: schema_version %d is negative", ErrCorruptState, version)
	}
	if version > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: schema_version %d is ahead of supported %d (downgrade?)",
			ErrCorruptState, version, CurrentSchemaVersion)
	}
	for version < CurrentSchemaVersion {
		step, ok := migrations[version]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from schema_version %d", ErrCorruptState, version)
		}
		step(raw)
		version++
		raw["schema_version"] = version
	}
	return raw, nil
}

// migrations maps a source version to the transform producing source+1.
// Each transform only adds fields with safe defaults; none deletes or renames.
var migrations = map[int]func(map[string]any){
	0: migrateV0toV1,
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// v0 records predate day-keyed counters entirely.
func migrateV0toV1(m map[string]any) {
	setDefault(m, "day_key", "")
	setDefault(m, "trades_executed_today", float64(0))
}

// v2 added per-channel circuit breaker bookkeeping.
func migrateV1toV2(m map[string]any) {
	setDefault(m, "channel_failures", map[string]any{})
	setDefault(m, "channel_disabled_until_ms", map[string]any{})
}

// v3 added content planning: day-keyed post counters and the dedup memory.
func migrateV2toV3(m map[string]any) {
	setDefault(m, "content_day_key", "")
	setDefault(m, "content_daily_count", float64(0))
	setDefault(m, "seen_fingerprints", []any{})
	setDefault(m, "last_posted_fingerprint", "")
}

func setDefault(m map[string]any, key string, def any) {
	if _, ok := m[key]; !ok {
		m[key] = def
	}
}

func schemaVersionOf(m map[string]any) (int, bool) {
	raw, ok := m["schema_version"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// knownFields are the JSON keys owned by the current Record shape. Anything
// else in a raw record is carried through saves verbatim.
var knownFields = map[string]struct{}{
	"schema_version":            {},
	"day_key":                   {},
	"trades_executed_today":     {},
	"last_trade_at_ms":          {},
	"channel_failures":          {},
	"channel_disabled_until_ms": {},
	"content_day_key":           {},
	"content_daily_count":       {},
	"content_last_post_at_ms":   {},
	"seen_fingerprints":         {},
	"last_posted_fingerprint":   {},
}

// decodeRecord turns a migrated raw map into a typed Record, stashing unknown
// fields for the next encode.
func decodeRecord(raw map[string]any) (*Record, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encode failed: %v", ErrCorruptState, err)
	}
	var rec Record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", ErrCorruptState, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, fmt.Errorf("%w: field scan failed: %v", ErrCorruptState, err)
	}
	for key, val := range fields {
		if _, known := knownFields[key]; known {
			continue
		}
		if rec.extra == nil {
			rec.extra = map[string]json.RawMessage{}
		}
		rec.extra[key] = val
	}
	if rec.SeenFingerprints == nil {
		rec.SeenFingerprints = []string{}
	}
	if rec.ChannelFailures == nil {
		rec.ChannelFailures = map[string]int{}
	}
	if rec.ChannelDisabledUntilMs == nil {
		rec.ChannelDisabledUntilMs = map[string]int64{}
	}
	return &rec, nil
}

// encodeRecord renders the record plus any preserved unknown fields.
func encodeRecord(rec *Record) ([]byte, error) {
	buf, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if len(rec.extra) == 0 {
		return buf, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(buf, &merged); err != nil {
		return nil, err
	}
	for key, val := range rec.extra {
		if _, known := knownFields[key]; known {
			continue
		}
		merged[key] = val
	}
	return json.Marshal(merged)
}
