package vobsub

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Control directive opcodes.
const (
	cmdForceDisplay = 0x00
	cmdStartDisplay = 0x01
	cmdStopDisplay  = 0x02
	cmdSetPalette   = 0x03
	cmdSetAlpha     = 0x04
	cmdSetCoords    = 0x05
	cmdSetRLEOffset = 0x06
	cmdEnd          = 0xFF
)

// controlState accumulates the directives of all control sequences in one
// packet. Delays are relative to the entry's index timestamp.
type controlState struct {
	forced     bool
	startDelay time.Duration
	stopDelay  time.Duration
	hasStop    bool
	palette    [4]uint8
	alpha      [4]uint8
	x, y       int
	width      int
	height     int
	hasCoords  bool
	evenOffset int
	oddOffset  int
	hasOffsets bool
}

// parseControl walks the chain of timed control sequences in packet,
// starting at ctrlOffset. The last sequence links to itself.
func parseControl(packet []byte, ctrlOffset int) (*controlState, error) {
	state := &controlState{}
	offset := ctrlOffset
	for {
		if offset+4 > len(packet) {
			return nil, fmt.Errorf("%w: control sequence at %d past packet end", ErrInvalidPacketHeader, offset)
		}
		delay := controlDelay(binary.BigEndian.Uint16(packet[offset : offset+2]))
		next := int(binary.BigEndian.Uint16(packet[offset+2 : offset+4]))

		if err := state.applyCommands(packet, offset+4, delay); err != nil {
			return nil, err
		}

		if next == offset {
			break
		}
		// Sequences are stored in ascending order, so a link that does not
		// advance can only come from a corrupt chain. Rejecting it also
		// bounds the walk.
		if next <= offset || next >= len(packet) {
			return nil, fmt.Errorf("%w: control sequence link %d does not advance past %d", ErrInvalidPacketHeader, next, offset)
		}
		offset = next
	}
	return state, nil
}

func (s *controlState) applyCommands(packet []byte, pos int, delay time.Duration) error {
	for pos < len(packet) {
		cmd := packet[pos]
		pos++
		switch cmd {
		case cmdForceDisplay:
			s.forced = true
		case cmdStartDisplay:
			s.startDelay = delay
		case cmdStopDisplay:
			s.stopDelay = delay
			s.hasStop = true
		case cmdSetPalette:
			if pos+2 > len(packet) {
				return truncatedCommand(cmd)
			}
			// Nibbles are ordered color 3 down to color 0.
			s.palette[3] = packet[pos] >> 4
			s.palette[2] = packet[pos] & 0x0F
			s.palette[1] = packet[pos+1] >> 4
			s.palette[0] = packet[pos+1] & 0x0F
			pos += 2
		case cmdSetAlpha:
			if pos+2 > len(packet) {
				return truncatedCommand(cmd)
			}
			s.alpha[3] = packet[pos] >> 4
			s.alpha[2] = packet[pos] & 0x0F
			s.alpha[1] = packet[pos+1] >> 4
			s.alpha[0] = packet[pos+1] & 0x0F
			pos += 2
		case cmdSetCoords:
			if pos+6 > len(packet) {
				return truncatedCommand(cmd)
			}
			x1 := int(packet[pos])<<4 | int(packet[pos+1])>>4
			x2 := int(packet[pos+1]&0x0F)<<8 | int(packet[pos+2])
			y1 := int(packet[pos+3])<<4 | int(packet[pos+4])>>4
			y2 := int(packet[pos+4]&0x0F)<<8 | int(packet[pos+5])
			if x2 < x1 || y2 < y1 {
				return fmt.Errorf("%w: inverted display window (%d,%d)-(%d,%d)", ErrInvalidPacketHeader, x1, y1, x2, y2)
			}
			s.x, s.y = x1, y1
			s.width = x2 - x1 + 1
			s.height = y2 - y1 + 1
			s.hasCoords = true
			pos += 6
		case cmdSetRLEOffset:
			if pos+4 > len(packet) {
				return truncatedCommand(cmd)
			}
			s.evenOffset = int(binary.BigEndian.Uint16(packet[pos : pos+2]))
			s.oddOffset = int(binary.BigEndian.Uint16(packet[pos+2 : pos+4]))
			s.hasOffsets = true
			pos += 4
		case cmdEnd:
			return nil
		default:
			return fmt.Errorf("%w: directive %#02x", ErrUnsupportedControl, cmd)
		}
	}
	return fmt.Errorf("%w: control sequence missing end directive", ErrInvalidPacketHeader)
}

// controlDelay converts a control sequence delay field (90 kHz clock ticks
// divided by 1024) to a duration.
func controlDelay(ticks uint16) time.Duration {
	return time.Duration(ticks) * 1024 * time.Second / 90000
}

func truncatedCommand(cmd byte) error {
	return fmt.Errorf("%w: directive %#02x truncated", ErrInvalidPacketHeader, cmd)
}
