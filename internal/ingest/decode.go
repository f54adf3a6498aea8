package ingest

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/ayusman/mudra/internal/detector"
)

// MessageTypeHand is the only message type the stream understands.
const MessageTypeHand = "hand"

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Message is one decoded hand observation from the stream.
type Message struct {
	FrameID     int64
	Observation detector.Observation
}

// decodeMessage decodes a CBOR payload shaped like
// { "type": "hand", "frame_id": <int>, "joints": { "wrist": [x, y], ... } }.
// Unknown joints and malformed coordinates are skipped; they are treated as
// absent, not as a failed message.
func decodeMessage(msg []byte) (Message, error) {
	var payload map[string]any
	if err := decMode.Unmarshal(msg, &payload); err != nil {
		return Message{}, fmt.Errorf("decode cbor: %w", err)
	}

	msgType, _ := payload["type"].(string)
	if msgType != MessageTypeHand {
		return Message{}, fmt.Errorf("unsupported message type %q", msgType)
	}

	var frameID int64
	if raw, ok := payload["frame_id"]; ok {
		id, err := toFloat(raw)
		if err != nil {
			return Message{}, fmt.Errorf("invalid frame_id: %w", err)
		}
		frameID = int64(id)
	}

	jointsRaw, ok := payload["joints"].(map[string]any)
	if !ok {
		return Message{}, fmt.Errorf("invalid joints field")
	}

	obs := make(detector.Observation, len(jointsRaw))
	for name, value := range jointsRaw {
		joint, ok := detector.ParseJoint(name)
		if !ok {
			continue
		}
		p, err := toPoint(value)
		if err != nil {
			continue
		}
		obs[joint] = p
	}

	return Message{FrameID: frameID, Observation: obs}, nil
}

func toPoint(v any) (detector.Point, error) {
	coords, ok := v.([]any)
	if !ok || len(coords) != 2 {
		return detector.Point{}, fmt.Errorf("expected [x, y]")
	}
	x, err := toFloat(coords[0])
	if err != nil {
		return detector.Point{}, err
	}
	y, err := toFloat(coords[1])
	if err != nil {
		return detector.Point{}, err
	}
	return detector.Point{X: x, Y: y}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}
