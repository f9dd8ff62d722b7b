package proto

import "fmt"

type decoder func(c Codec, payload []byte) (Message, error)

var decoders = map[Type]decoder{
	TypeUpdatePosition: decodeAs[UpdatePosition],
	TypePlayerMoved:    decodeAs[PlayerMoved],
	TypeBulletFired:    decodeAs[BulletFired],
	TypeTileDestroyed:  decodeAs[TileDestroyed],
	TypePlayerDeath:    decodeAs[PlayerDeath],
	TypeInit:           decodeAs[Init],
	TypePlayerJoined:   decodeAs[PlayerJoined],
	TypePlayerUpdated:  decodeAs[PlayerUpdated],
	TypePlayerLeft:     decodeAs[PlayerLeft],
	TypeGameStarted:    decodeAs[GameStarted],
	TypeSetName:        decodeAs[SetName],
	TypeStartGame:      decodeOptional[StartGame],
	TypeChat:           decodeAs[Chat],
	TypeItemSpawned:    decodeAs[ItemSpawned],
	TypeItemPickup:     decodeAs[ItemPickup],
}

func decodeAs[T Message](c Codec, payload []byte) (Message, error) {
	var out T
	if len(payload) == 0 {
		return out, ErrEmptyPayload
	}
	if err := c.Unmarshal(payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

func decodeOptional[T Message](c Codec, payload []byte) (Message, error) {
	var out T
	if len(payload) == 0 {
		return out, nil
	}
	return decodeAs[T](c, payload)
}

// Encode frames msg with c.
func Encode(c Codec, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode: %w", ErrEmptyPayload)
	}
	return c.Encode(msg.MessageType(), msg)
}

// Decode parses a frame into its typed message.
func Decode(c Codec, data []byte) (Message, error) {
	t, payload, err := c.Split(data)
	if err != nil {
		return nil, err
	}
	dec, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("decode %q: %w", t, ErrUnknownMessage)
	}
	msg, err := dec(c, payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return msg, nil
}

// Frame is an envelope whose payload is kept generic. The relay works on
// frames so it can forward fields it does not model.
type Frame struct {
	Type    Type
	Payload map[string]any
}

// DecodeFrame parses the envelope of data, leaving the payload as a map.
// Payloads that are not objects are stored under "value".
func DecodeFrame(c Codec, data []byte) (Frame, error) {
	t, payload, err := c.Split(data)
	if err != nil {
		return Frame{}, err
	}
	frame := Frame{Type: t, Payload: map[string]any{}}
	if len(payload) == 0 {
		return frame, nil
	}
	var value any
	if err := c.Unmarshal(payload, &value); err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", t, err)
	}
	if object, ok := value.(map[string]any); ok {
		frame.Payload = object
	} else {
		frame.Payload["value"] = value
	}
	return frame, nil
}

// EncodeFrame frames a generic payload.
func EncodeFrame(c Codec, frame Frame) ([]byte, error) {
	return c.Encode(frame.Type, frame.Payload)
}

// Types lists every message type with a decoder, for schema generation.
func Types() map[Type]Message {
	return map[Type]Message{
		TypeUpdatePosition: UpdatePosition{},
		TypePlayerMoved:    PlayerMoved{},
		TypeBulletFired:    BulletFired{},
		TypeTileDestroyed:  TileDestroyed{},
		TypePlayerDeath:    PlayerDeath{},
		TypeInit:           Init{},
		TypePlayerJoined:   PlayerJoined{},
		TypePlayerUpdated:  PlayerUpdated{},
		TypePlayerLeft:     PlayerLeft{},
		TypeGameStarted:    GameStarted{},
		TypeSetName:        SetName{},
		TypeStartGame:      StartGame{},
		TypeChat:           Chat{},
		TypeItemSpawned:    ItemSpawned{},
		TypeItemPickup:     ItemPickup{},
	}
}
