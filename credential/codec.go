package credential

import (
	"encoding/json"
	"strings"
)

// encodeValues flattens rec into storage values. Empty fields map to "",
// which backends treat as "delete this key".
func encodeValues(rec Record) (map[string]string, error) {
	values := map[string]string{
		KeyToken:        rec.AccessToken,
		KeyRefreshToken: rec.RefreshToken,
		KeyUser:         "",
	}
	if rec.User != nil {
		data, err := json.Marshal(rec.User)
		if err != nil {
			return nil, err
		}
		values[KeyUser] = string(data)
	}
	return values, nil
}

func decodeValues(values map[string]string) Record {
	return Record{
		AccessToken:  values[KeyToken],
		RefreshToken: values[KeyRefreshToken],
		User:         decodeUser(values[KeyUser]),
	}
}

// decodeUser never fails: a missing, "null" or malformed value is an absent
// profile.
func decodeUser(raw string) *User {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}
