package pkg

import (
	"voice-status-bot/pkg/db"
	"voice-status-bot/pkg/icon"
	"voice-status-bot/pkg/poller"
	"voice-status-bot/pkg/status"
	"voice-status-bot/pkg/tracker"
)

type Bot struct {
	DB      *db.DB
	Tracker *tracker.Tracker
	Updater *status.Updater
	Steam   *poller.Poller
	Roblox  *poller.Poller
	Icons   *icon.Resolver

	// Reload is called by /reload after the reply was sent.
	Reload func()
}
