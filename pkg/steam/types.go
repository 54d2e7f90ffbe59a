package steam

import "fmt"

// PlayerSummary is one entry of ISteamUser/GetPlayerSummaries.
// Fields not shown on private profiles are left at their zero value.
type PlayerSummary struct {
	SteamID                  string       `json:"steamid"`
	CommunityVisibilityState int          `json:"communityvisibilitystate"`
	ProfileState             int          `json:"profilestate"`
	Username                 string       `json:"personaname"`
	ProfileURL               string       `json:"profileurl"`
	Avatar                   string       `json:"avatar"`
	AvatarMedium             string       `json:"avatarmedium"`
	AvatarFull               string       `json:"avatarfull"`
	AvatarHash               string       `json:"avatarhash"`
	LastLogOff               int64        `json:"lastlogoff"`
	OnlineStatus             PersonaState `json:"personastate"`
	PrimaryClanID            string       `json:"primaryclanid"`
	CreatedAt                int64        `json:"timecreated"`
	StatusFlags              int          `json:"personastateflags"`
	GameName                 string       `json:"gameextrainfo"`
	GameID                   string       `json:"gameid"`
	CountryCode              string       `json:"loccountrycode"`
}

func (p PlayerSummary) InGame() bool {
	return p.GameName != ""
}

func (p PlayerSummary) String() string {
	return fmt.Sprintf("%s (%s) - %s", p.Username, p.SteamID, p.GameName)
}

type PersonaState int

const (
	PersonaStateOffline PersonaState = iota
	PersonaStateOnline
	PersonaStateBusy
	PersonaStateAway
	PersonaStateSnooze
	PersonaStateLookingToTrade
	PersonaStateLookingToPlay
)

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type App struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

type appListResponse struct {
	AppList struct {
		Apps []App `json:"apps"`
	} `json:"applist"`
}
