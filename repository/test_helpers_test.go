package repository

import "jackpot/domain/events"

var testEventOwnerChanged = events.OwnerChangedEvent{OldOwnerID: "owner", NewOwnerID: "bob"}
