package midi

import (
	"bufio"
	"context"
	"io"
)

// ByteSource frames a raw byte stream into realtime status bytes (for the
// clock grid) and full 3-byte channel messages (for the input port). It is
// the minimal concrete stand-in for the abstract MIDI ports spec.md leaves
// unspecified: real hardware/driver I/O is out of scope, so bootstrap talks
// to any io.Reader that already carries framed MIDI bytes (a virtual MIDI
// cable, a recorded capture, a test harness).
type ByteSource struct {
	r *bufio.Reader
}

// NewByteSource wraps r.
func NewByteSource(r io.Reader) *ByteSource {
	return &ByteSource{r: bufio.NewReader(r)}
}

// ReadMessage implements grid.Source: one realtime status byte per call.
func (s *ByteSource) ReadMessage(ctx context.Context) (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	return b, nil
}

// ReadEvent implements controller.EventSource: a status byte followed by
// two data bytes, per the channel-voice message grammar DecodeChannelMessage
// understands.
func (s *ByteSource) ReadEvent(ctx context.Context) (status, d1, d2 byte, err error) {
	status, err = s.r.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	d1, err = s.r.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	d2, err = s.r.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	return status, d1, d2, nil
}

// ByteSink writes dispatched events to w as raw channel-message bytes,
// implementing controller.OutputSink.
type ByteSink struct {
	w io.Writer
}

// NewByteSink wraps w.
func NewByteSink(w io.Writer) *ByteSink {
	return &ByteSink{w: w}
}

// Send implements controller.OutputSink.
func (s *ByteSink) Send(e Event) error {
	status, d1, d2 := EncodeChannelMessage(e)
	_, err := s.w.Write([]byte{status, d1, d2})
	return err
}
