package models

import (
	"encoding/json"
	"fmt"
)

// ConnectedAccount is an opaque value owned by the backend. Objects, bare
// strings and numbers are all accepted and re-encoded unchanged.
type ConnectedAccount struct {
	value any
}

func NewConnectedAccount(v any) ConnectedAccount {
	return ConnectedAccount{value: v}
}

func (a ConnectedAccount) Value() any {
	return a.value
}

func (a ConnectedAccount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value)
}

func (a *ConnectedAccount) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &a.value)
}

// Platform is empty unless the backend sent an object naming one.
func (a ConnectedAccount) Platform() string {
	fields, ok := a.value.(map[string]any)
	if !ok {
		return ""
	}
	return firstString(fields, "platform", "provider")
}

func (a ConnectedAccount) DisplayName() string {
	switch v := a.value.(type) {
	case map[string]any:
		return firstString(v, "account_username", "username", "account_name", "name", "account_id", "id")
	case nil:
		return ""
	default:
		return scalarString(v)
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(fields[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case bool:
		return fmt.Sprint(v)
	}
	return ""
}
