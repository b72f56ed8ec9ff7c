package microwire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize limits memory usage on malformed/hostile input.
const MaxFrameSize = 8 << 20 // 8 MiB

var errEmptyFrame = errors.New("microwire: empty frame")

// ReadFrame decodes one length-prefixed JSON frame from r into v. The
// prefix is a big-endian uint32 payload length.
func ReadFrame(r io.Reader, v any) error {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return err
	}
	switch {
	case size == 0:
		return errEmptyFrame
	case size > MaxFrameSize:
		return fmt.Errorf("microwire: frame of %d bytes exceeds the %d byte limit", size, MaxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("microwire: decode frame: %w", err)
	}
	return nil
}

// WriteFrame encodes v as a length-prefixed JSON frame. Prefix and payload
// go out in a single Write.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("microwire: encode frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("microwire: frame of %d bytes exceeds the %d byte limit", len(payload), MaxFrameSize)
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err = w.Write(buf)
	return err
}
