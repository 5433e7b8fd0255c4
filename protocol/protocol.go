// Package protocol implements the trace link between the drive firmware and
// the host tools: VLQ-encoded messages wrapped in CRC16 frames.
package protocol

// Version is reported in the identify message at boot.
const Version = "0.3.0"

// MessageID selects the layout of a frame payload.
type MessageID uint8

const (
	MsgIdentify  MessageID = 0 // version string
	MsgEvent     MessageID = 1 // Event
	MsgTelemetry MessageID = 2 // Telemetry
)

func (m MessageID) String() string {
	switch m {
	case MsgIdentify:
		return "identify"
	case MsgEvent:
		return "event"
	case MsgTelemetry:
		return "telemetry"
	}
	return "unknown"
}

// MessageMax bounds the scratch output used to build one batch of frames.
const MessageMax = 512
