package midi

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// varLen encodes a MIDI variable-length quantity.
func varLen(v uint32) []byte {
	if v < 0x80 {
		return []byte{byte(v)}
	}
	var buf [4]byte
	n := 0
	for tmp := v; tmp > 0; tmp >>= 7 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := byte((v >> (uint(i) * 7)) & 0x7F)
		if i > 0 {
			b |= 0x80
		}
		buf[n-1-i] = b
	}
	return buf[:n]
}

func endOfTrack() []byte {
	return []byte{0x00, 0xFF, 0x2F, 0x00}
}

// EncodeSMF serializes a bar's captured events into a single-track, format-0
// Standard MIDI File, for submission as a generation prompt. events need not
// arrive sorted by pulse; EncodeSMF stable-sorts by pulse before emitting, so
// caller ordering only matters as the tie-break within a pulse (capture
// order, same as the scheduled queue). Pulses are converted to ticks via
// tick = pulse * tpq / 24, matching the pulse grid's 24-pulses-per-quarter
// convention.
func EncodeSMF(events []InputEvent, tpq uint16) []byte {
	ordered := make([]InputEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Pulse < ordered[j].Pulse
	})

	var track bytes.Buffer
	var prevTick uint32
	for _, ie := range ordered {
		tick := uint32(ie.Pulse) * uint32(tpq) / 24
		delta := tick - prevTick
		prevTick = tick

		status, d1, d2 := EncodeChannelMessage(ie.Event)
		track.Write(varLen(delta))
		track.WriteByte(status)
		track.WriteByte(d1)
		track.WriteByte(d2)
	}
	track.Write(endOfTrack())

	var out bytes.Buffer
	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, uint16(0)) // format 0
	binary.Write(&out, binary.BigEndian, uint16(1)) // 1 track
	binary.Write(&out, binary.BigEndian, tpq)

	out.WriteString("MTrk")
	binary.Write(&out, binary.BigEndian, uint32(track.Len()))
	out.Write(track.Bytes())

	return out.Bytes()
}
