package protocol

// Event is one entry of the firmware's trace ring.
type Event struct {
	Kind  uint8
	Unit  uint8
	Clock uint32 // PWM period counter
	V1    uint32
	V2    uint32
}

func (ev *Event) encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(ev.Kind))
	EncodeVLQUint(output, uint32(ev.Unit))
	EncodeVLQUint(output, ev.Clock)
	EncodeVLQUint(output, ev.V1)
	EncodeVLQUint(output, ev.V2)
}

// EncodeEvent frames ev as a MsgEvent.
func (e *Encoder) EncodeEvent(output OutputBuffer, ev Event) bool {
	return e.Encode(output, MsgEvent, ev.encode)
}

// DecodeEvent parses a MsgEvent payload.
func DecodeEvent(payload []byte) (Event, error) {
	var ev Event
	var v [5]uint32
	for i := range v {
		n, err := DecodeVLQUint(&payload)
		if err != nil {
			return ev, err
		}
		v[i] = n
	}
	ev.Kind, ev.Unit, ev.Clock, ev.V1, ev.V2 = uint8(v[0]), uint8(v[1]), v[2], v[3], v[4]
	return ev, nil
}

// Telemetry is the periodic status snapshot sent from the idle loop.
// Currents are in milliamps, voltages in millivolts.
type Telemetry struct {
	Clock        uint32
	ControlRuns  uint32
	StreamPasses [2]uint32
	BusMillivolt int32
	TempCode     uint32
	IdMilliamp   int32
	IqMilliamp   int32
	Sector       uint8
}

func (t *Telemetry) encode(output OutputBuffer) {
	EncodeVLQUint(output, t.Clock)
	EncodeVLQUint(output, t.ControlRuns)
	EncodeVLQUint(output, t.StreamPasses[0])
	EncodeVLQUint(output, t.StreamPasses[1])
	EncodeVLQInt(output, t.BusMillivolt)
	EncodeVLQUint(output, t.TempCode)
	EncodeVLQInt(output, t.IdMilliamp)
	EncodeVLQInt(output, t.IqMilliamp)
	EncodeVLQUint(output, uint32(t.Sector))
}

// EncodeTelemetry frames t as a MsgTelemetry.
func (e *Encoder) EncodeTelemetry(output OutputBuffer, t *Telemetry) bool {
	return e.Encode(output, MsgTelemetry, t.encode)
}

// DecodeTelemetry parses a MsgTelemetry payload.
func DecodeTelemetry(payload []byte) (Telemetry, error) {
	var t Telemetry
	var v [9]int32
	for i := range v {
		n, err := DecodeVLQInt(&payload)
		if err != nil {
			return t, err
		}
		v[i] = n
	}
	t.Clock = uint32(v[0])
	t.ControlRuns = uint32(v[1])
	t.StreamPasses = [2]uint32{uint32(v[2]), uint32(v[3])}
	t.BusMillivolt = v[4]
	t.TempCode = uint32(v[5])
	t.IdMilliamp = v[6]
	t.IqMilliamp = v[7]
	t.Sector = uint8(v[8])
	return t, nil
}

// EncodeIdentify frames the firmware version string.
func (e *Encoder) EncodeIdentify(output OutputBuffer) bool {
	return e.Encode(output, MsgIdentify, func(out OutputBuffer) {
		EncodeVLQString(out, Version)
	})
}

// DecodeIdentify returns the version carried by a MsgIdentify payload.
func DecodeIdentify(payload []byte) (string, error) {
	return DecodeVLQString(&payload)
}
