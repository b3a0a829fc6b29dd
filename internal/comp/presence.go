package comp

// PresenceKind distinguishes in-world participants from spectators.
type PresenceKind uint8

const (
	PresenceCharacter PresenceKind = iota
	PresenceSpectator
)

// Presence marks an entity as an in-world participant with a subscribed
// view distance (in chunks).
type Presence struct {
	ViewDistance uint32
	Kind         PresenceKind
}

// Player carries the account identity behind a client-controlled entity.
type Player struct {
	Alias       string
	AccountID   int64
	CharacterID int64
}

// CanBuild grants block break/place rights; absent means denied.
type CanBuild struct{}
