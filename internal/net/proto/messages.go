// Package proto defines the relay wire protocol: a {t, p} envelope around
// event payloads, encoded as JSON text or msgpack binary frames.
package proto

// Type names an event on the wire.
type Type string

// Events sent by a match client.
const (
	TypeUpdatePosition Type = "updatePosition"
	TypeBulletFired    Type = "bulletFired"
	TypeTileDestroyed  Type = "tileDestroyed"
	TypePlayerDeath    Type = "playerDeath"
	TypeSetName        Type = "setName"
	TypeStartGame      Type = "startGame"
	TypeChat           Type = "chat"
	TypeItemSpawned    Type = "itemSpawned"
	TypeItemPickup     Type = "itemPickup"
)

// Events sent by the relay.
const (
	TypeInit          Type = "init"
	TypePlayerJoined  Type = "playerJoined"
	TypePlayerUpdated Type = "playerUpdated"
	TypePlayerMoved   Type = "playerMoved"
	TypePlayerLeft    Type = "playerLeft"
	TypeGameStarted   Type = "gameStarted"
)

// TypeConnectivity never crosses the wire. Transports push it into the inbox
// to report link changes in tick order.
const TypeConnectivity Type = "connectivity"

// Message is any decoded payload.
type Message interface {
	MessageType() Type
}

// Ptr returns a pointer to v, for filling partial payloads.
func Ptr[T any](v T) *T {
	return &v
}

// PositionFields carries the replicated combatant fields. Nil fields are
// absent on the wire and leave the receiving mirror unchanged.
type PositionFields struct {
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	Angle        *float64 `json:"angle,omitempty"`
	Health       *int     `json:"health,omitempty"`
	Lives        *int     `json:"lives,omitempty"`
	IsEliminated *bool    `json:"isEliminated,omitempty"`
	ShieldTime   *int     `json:"shieldTime,omitempty"`
	BulletLevel  *int     `json:"bulletLevel,omitempty"`
	PiercingTime *int     `json:"piercingTime,omitempty"`
}

// UpdatePosition is the local human's periodic state broadcast.
type UpdatePosition struct {
	PositionFields
}

func (UpdatePosition) MessageType() Type { return TypeUpdatePosition }

// PlayerMoved is an UpdatePosition relayed with the sender's identity.
type PlayerMoved struct {
	ID string `json:"id"`
	PositionFields
}

func (PlayerMoved) MessageType() Type { return TypePlayerMoved }

// BulletFired announces a shot. OwnerID is stamped by the relay.
type BulletFired struct {
	ID         string  `json:"id"`
	OwnerID    string  `json:"ownerId,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Angle      float64 `json:"angle"`
	Speed      float64 `json:"speed"`
	IsPiercing bool    `json:"isPiercing"`
}

func (BulletFired) MessageType() Type { return TypeBulletFired }

// TileDestroyed carries the new kind of a grid cell.
type TileDestroyed struct {
	Row  int `json:"r"`
	Col  int `json:"c"`
	Tile int `json:"tile"`
}

func (TileDestroyed) MessageType() Type { return TypeTileDestroyed }

// PlayerDeath reports a life lost by PlayerID.
type PlayerDeath struct {
	PlayerID     string `json:"playerId"`
	Lives        int    `json:"lives"`
	IsEliminated bool   `json:"isEliminated"`
}

func (PlayerDeath) MessageType() Type { return TypePlayerDeath }

// Player is a roster entry kept by the relay.
type Player struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Angle        float64 `json:"angle"`
	Health       int     `json:"health"`
	MaxHealth    int     `json:"maxHealth"`
	Lives        int     `json:"lives"`
	IsEliminated bool    `json:"isEliminated"`
	ShieldTime   int     `json:"shieldTime"`
	BulletLevel  int     `json:"bulletLevel"`
	SpeedLevel   int     `json:"speedLevel"`
	PiercingTime int     `json:"piercingTime"`
	Score        int     `json:"score"`
}

// Init greets a new connection with its identity and the current roster.
type Init struct {
	PlayerID    string   `json:"playerId"`
	PlayerInfo  Player   `json:"playerInfo"`
	Players     []Player `json:"players"`
	GameStarted bool     `json:"gameStarted"`
}

func (Init) MessageType() Type { return TypeInit }

type PlayerJoined struct {
	Player
}

func (PlayerJoined) MessageType() Type { return TypePlayerJoined }

type PlayerUpdated struct {
	Player
}

func (PlayerUpdated) MessageType() Type { return TypePlayerUpdated }

// PlayerLeft names the identity whose connection closed.
type PlayerLeft struct {
	ID string `json:"id"`
}

func (PlayerLeft) MessageType() Type { return TypePlayerLeft }

// GameStarted hands the final roster to every client.
type GameStarted struct {
	Players []Player `json:"players"`
}

func (GameStarted) MessageType() Type { return TypeGameStarted }

type SetName struct {
	Name string `json:"name"`
}

func (SetName) MessageType() Type { return TypeSetName }

type StartGame struct{}

func (StartGame) MessageType() Type { return TypeStartGame }

// Chat is sent with Message only; the relay fills in the sender.
type Chat struct {
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Message    string `json:"message"`
}

func (Chat) MessageType() Type { return TypeChat }

type ItemSpawned struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"type"`
}

func (ItemSpawned) MessageType() Type { return TypeItemSpawned }

type ItemPickup struct {
	ID string `json:"id"`
}

func (ItemPickup) MessageType() Type { return TypeItemPickup }

// ConnectionState is the link status reported to the match.
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
)

// Connectivity is a local message describing a transport link change.
type Connectivity struct {
	State  ConnectionState `json:"state"`
	Reason string          `json:"reason,omitempty"`
}

func (Connectivity) MessageType() Type { return TypeConnectivity }
