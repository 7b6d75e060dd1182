package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns messages into websocket frames of a single frame type.
type Codec interface {
	Name() string
	FrameType() int
	Encode(core.Message) ([]byte, error)
	Decode([]byte, *core.Inbound) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return "json" }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(m core.Message) ([]byte, error) { return json.Marshal(m) }

func (jsonCodec) Decode(data []byte, in *core.Inbound) error { return json.Unmarshal(data, in) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(m core.Message) ([]byte, error) { return msgpack.Marshal(map[string]any(m)) }

func (msgpackCodec) Decode(data []byte, in *core.Inbound) error { return msgpack.Unmarshal(data, in) }

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName resolves the ?codec= query value; empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// decodeFrame picks the decoder from the frame type, so a client may mix both.
func decodeFrame(frameType int, data []byte) (core.Inbound, error) {
	var in core.Inbound
	codec := JSON
	if frameType == websocket.BinaryMessage {
		codec = MsgPack
	}
	if err := codec.Decode(data, &in); err != nil {
		return core.Inbound{}, err
	}
	if in.Type == "" {
		return core.Inbound{}, fmt.Errorf("missing type")
	}
	return in, nil
}
