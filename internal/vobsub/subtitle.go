package vobsub

import (
	"encoding/binary"
	"fmt"
	"time"
)

// defaultDuration is used when a packet carries no stop-display directive.
// Players typically keep such subtitles up until the next one; a fixed
// window keeps cues bounded without looking ahead in the schedule.
const defaultDuration = 4 * time.Second

// Subtitle is one decoded subtitle: a 2-bit indexed raster positioned on
// the frame, the 4-entry palette/alpha selection that colors it, and its
// display window.
type Subtitle struct {
	Start  time.Duration
	End    time.Duration
	Forced bool

	// X, Y anchor the raster's top-left corner on the video frame.
	X, Y          int
	Width, Height int

	// Pixels holds one color index (0-3) per pixel, row-major,
	// Width*Height long. Index 0 is the background.
	Pixels []uint8

	// Palette maps the four color indices into the stream's 16-color
	// table; Alpha holds their opacity (0 transparent, 15 opaque).
	Palette [4]uint8
	Alpha   [4]uint8
}

// DecodePacket decodes one reassembled subtitle packet. base is the
// entry's index timestamp; display delays in the control sequence are
// applied relative to it.
func DecodePacket(packet []byte, base time.Duration) (*Subtitle, error) {
	if len(packet) < 4 {
		return nil, fmt.Errorf("%w: packet of %d bytes", ErrInvalidPacketHeader, len(packet))
	}
	size := int(binary.BigEndian.Uint16(packet[:2]))
	ctrlOffset := int(binary.BigEndian.Uint16(packet[2:4]))
	if size != len(packet) {
		return nil, fmt.Errorf("%w: declared size %d, packet has %d bytes", ErrInvalidPacketHeader, size, len(packet))
	}
	if ctrlOffset < 4 || ctrlOffset >= size {
		return nil, fmt.Errorf("%w: control offset %d out of range", ErrInvalidPacketHeader, ctrlOffset)
	}

	state, err := parseControl(packet, ctrlOffset)
	if err != nil {
		return nil, err
	}
	if !state.hasCoords {
		return nil, fmt.Errorf("%w: no display window directive", ErrInvalidPacketHeader)
	}
	if !state.hasOffsets {
		return nil, fmt.Errorf("%w: no bitmap plane offsets", ErrInvalidPacketHeader)
	}
	if state.evenOffset < 4 || state.evenOffset > ctrlOffset ||
		state.oddOffset < 4 || state.oddOffset > ctrlOffset {
		return nil, fmt.Errorf("%w: plane offsets %d/%d outside bitmap area", ErrInvalidPacketHeader, state.evenOffset, state.oddOffset)
	}

	sub := &Subtitle{
		Start:   base + state.startDelay,
		Forced:  state.forced,
		X:       state.x,
		Y:       state.y,
		Width:   state.width,
		Height:  state.height,
		Pixels:  make([]uint8, state.width*state.height),
		Palette: state.palette,
		Alpha:   state.alpha,
	}
	if state.hasStop {
		sub.End = base + state.stopDelay
	} else {
		sub.End = sub.Start + defaultDuration
	}

	// Even scanlines come from the first plane, odd from the second.
	if err := decodePlane(sub.Pixels, sub.Width, sub.Height, 0, packet[state.evenOffset:ctrlOffset]); err != nil {
		return nil, err
	}
	if err := decodePlane(sub.Pixels, sub.Width, sub.Height, 1, packet[state.oddOffset:ctrlOffset]); err != nil {
		return nil, err
	}
	return sub, nil
}

// DecodeEntry reads and decodes the subtitle for one index entry from the
// .sub stream.
func DecodeEntry(data []byte, entry Entry) (*Subtitle, error) {
	packet, err := ReadPacket(data, entry.Offset)
	if err != nil {
		return nil, err
	}
	return DecodePacket(packet, entry.Timestamp)
}
