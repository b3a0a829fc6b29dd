// Package protocol defines the JSON message envelopes exchanged with
// clients. Every message carries an explicit type tag; unknown tags are
// logged and dropped without poisoning the stream.
package protocol

import "encoding/json"

const Version = "1.0"

// Client→server message types.
const (
	TypeRegister         = "REGISTER"
	TypeInputs           = "INPUTS"
	TypeControlEvent     = "CONTROL_EVENT"
	TypePlayerPhysics    = "PLAYER_PHYSICS"
	TypeSetViewDistance  = "SET_VIEW_DISTANCE"
	TypeBreakBlock       = "BREAK_BLOCK"
	TypePlaceBlock       = "PLACE_BLOCK"
	TypeUnlockSkill      = "UNLOCK_SKILL"
	TypeRefundSkill      = "REFUND_SKILL"
	TypeUnlockSkillGroup = "UNLOCK_SKILL_GROUP"
	TypeSiteInfoRequest  = "SITE_INFO_REQUEST"
	TypeChunkRequest     = "CHUNK_REQUEST"
	TypeChat             = "CHAT"
	TypeDisconnect       = "DISCONNECT"
)

// Server→client message types.
const (
	TypeRegisterAnswer = "REGISTER_ANSWER"
	TypeVDCorrection   = "SET_VIEW_DISTANCE_CORRECTION"
	TypeChunkUpdate    = "CHUNK_UPDATE"
	TypeChatMsg        = "CHAT_MSG"
	TypeSiteInfo       = "SITE_INFO"
	TypeForceUpdate    = "FORCE_UPDATE"
	TypeEntitySync     = "ENTITY_SYNC"
	TypeNotification   = "NOTIFICATION"
)

// BaseMessage routes raw JSON by its type tag.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Encode wraps any payload struct into wire bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

type RegisterMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Account         string `json:"account"`
	Password        string `json:"password"`
	CharacterName   string `json:"character_name"`
}

type RegisterAnswerMsg struct {
	Type  string `json:"type"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Uid   uint64 `json:"uid,omitempty"`
}

// InputsMsg mirrors comp.ControlInputs; latest message wins.
type InputsMsg struct {
	Type      string     `json:"type"`
	MoveDir   [2]float64 `json:"move_dir"`
	LookDir   [3]float64 `json:"look_dir"`
	Jump      bool       `json:"jump"`
	Sneak     bool       `json:"sneak"`
	Primary   bool       `json:"primary"`
	Secondary bool       `json:"secondary"`
	Roll      bool       `json:"roll"`
	Glide     bool       `json:"glide"`
	Wield     bool       `json:"wield"`
	Climb     string     `json:"climb,omitempty"` // "", "up", "down", "hold"
}

type ControlEventMsg struct {
	Type   string `json:"type"`
	Event  string `json:"event"` // respawn, interact, toggle_wield, swap_loadout
	Target uint64 `json:"target,omitempty"`
}

type PlayerPhysicsMsg struct {
	Type string     `json:"type"`
	Pos  [3]float64 `json:"pos"`
	Vel  [3]float64 `json:"vel"`
	Ori  [4]float64 `json:"ori"` // w, x, y, z
}

type SetViewDistanceMsg struct {
	Type         string `json:"type"`
	ViewDistance uint32 `json:"view_distance"`
}

type BlockEditMsg struct {
	Type  string   `json:"type"`
	Pos   [3]int32 `json:"pos"`
	Block uint8    `json:"block,omitempty"` // PlaceBlock only
}

type SkillMsg struct {
	Type  string `json:"type"`
	Group string `json:"group,omitempty"`
	Skill string `json:"skill,omitempty"`
}

type SiteInfoRequestMsg struct {
	Type   string `json:"type"`
	SiteID uint64 `json:"site_id"`
}

type ChunkRequestMsg struct {
	Type string   `json:"type"`
	Key  [2]int32 `json:"key"`
}

type ChatMsg struct {
	Type string `json:"type"`
	From uint64 `json:"from,omitempty"` // speaker Uid, 0 for server
	Name string `json:"name,omitempty"` // resolved speaker name (server→client)
	Text string `json:"text"`
}

// ChunkUpdateMsg delivers a zstd-compressed chunk payload, or an error
// string when generation failed.
type ChunkUpdateMsg struct {
	Type    string   `json:"type"`
	Key     [2]int32 `json:"key"`
	Payload []byte   `json:"payload,omitempty"` // zstd, base64 on the wire
	Error   string   `json:"error,omitempty"`
}

type SiteInfoMsg struct {
	Type   string     `json:"type"`
	SiteID uint64     `json:"site_id"`
	Name   string     `json:"name"`
	Kind   string     `json:"kind"`
	Pos    [2]float64 `json:"pos"`
}

type ForceUpdateMsg struct {
	Type    string     `json:"type"`
	Counter uint32     `json:"counter"`
	Pos     [3]float64 `json:"pos"`
}

// EntitySyncMsg is the per-tick state broadcast for entities in range.
type EntitySyncMsg struct {
	Type     string     `json:"type"`
	Uid      uint64     `json:"uid"`
	Pos      [3]float64 `json:"pos"`
	Vel      [3]float64 `json:"vel"`
	CharState string    `json:"char_state,omitempty"`
	Health   uint32     `json:"health,omitempty"`
}

type NotificationMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
