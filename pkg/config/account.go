package config

import "fmt"

// AccountKey names an external account that can be linked to a member with /config.
type AccountKey string

const (
	AccountKeySteamID  AccountKey = "steam_id"
	AccountKeyRobloxID AccountKey = "roblox_id"
)

func (k AccountKey) String() string {
	switch k {
	case AccountKeySteamID:
		return "Steam ID"
	case AccountKeyRobloxID:
		return "Roblox ID"
	}
	return "Unknown"
}

func (k AccountKey) Valid() bool {
	return k == AccountKeySteamID || k == AccountKeyRobloxID
}

// Set stores value for key. An empty value unlinks the account.
func (m *Member) Set(key AccountKey, value string) error {
	switch key {
	case AccountKeySteamID:
		m.SteamID = value
	case AccountKeyRobloxID:
		m.RobloxID = value
	default:
		return fmt.Errorf("unknown account key %q", key)
	}
	return nil
}

func (m Member) Get(key AccountKey) string {
	switch key {
	case AccountKeySteamID:
		return m.SteamID
	case AccountKeyRobloxID:
		return m.RobloxID
	}
	return ""
}
