/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package models

// Keys recognized inside Action.Data.  Policy hooks write decisions under
// these keys and the cluster runtime reads them back; everything else in
// Data is free-form.
const (
	DataKeyStatus   = "status"
	DataKeyReason   = "reason"
	DataKeyCreation = "creation"
	DataKeyDeletion = "deletion"

	DataKeyCount                = "count"
	DataKeyPlacements           = "placements"
	DataKeyCandidates           = "candidates"
	DataKeyGracePeriod          = "grace_period"
	DataKeyDestroyAfterDeletion = "destroy_after_deletion"

	CheckOK    = "CHECK_OK"
	CheckError = "CHECK_ERROR"
)

// NestedValue reads data[section][key].  The section must itself be a map.
func NestedValue(data map[string]any, section, key string) (any, bool) {
	if data == nil {
		return nil, false
	}
	inner, ok := data[section].(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := inner[key]
	return value, ok
}

// NestedInt reads data[section][key] as an integer, tolerating the float64
// representation produced by a JSON round trip.
func NestedInt(data map[string]any, section, key string) (int, bool) {
	value, ok := NestedValue(data, section, key)
	if !ok {
		return 0, false
	}
	return asInt(value)
}

// NestedBool reads data[section][key] as a boolean.
func NestedBool(data map[string]any, section, key string) (bool, bool) {
	value, ok := NestedValue(data, section, key)
	if !ok {
		return false, false
	}
	b, ok := value.(bool)
	return b, ok
}

// SetNested writes data[section][key] = value, creating the section map
// when absent, and returns the (possibly newly allocated) data map.
func SetNested(data map[string]any, section, key string, value any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	inner, ok := data[section].(map[string]any)
	if !ok {
		inner = map[string]any{}
		data[section] = inner
	}
	inner[key] = value
	return data
}

// InputInt reads an optional integer from an action input map.  Returns
// nil when the key is absent or explicitly null.
func InputInt(inputs map[string]any, key string) *int {
	if inputs == nil {
		return nil
	}
	value, ok := inputs[key]
	if !ok || value == nil {
		return nil
	}
	if n, ok := asInt(value); ok {
		return &n
	}
	return nil
}

// InputBool reads an optional boolean from an action input map.
func InputBool(inputs map[string]any, key string, fallback bool) bool {
	if inputs == nil {
		return fallback
	}
	if b, ok := inputs[key].(bool); ok {
		return b
	}
	return fallback
}

// InputString reads an optional string from an action input map.
func InputString(inputs map[string]any, key string) (string, bool) {
	if inputs == nil {
		return "", false
	}
	s, ok := inputs[key].(string)
	return s, ok
}

func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
