// Package testsupport builds synthetic VobSub fixtures for tests.
//
// The builders produce byte-exact subtitle packets and MPEG-2 program
// stream wrappers from plain pixel matrices, so decode tests can assert
// round trips without binary fixture files.
package testsupport

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Picture describes one synthetic subtitle for BuildSubtitlePacket.
type Picture struct {
	Width, Height int
	// Pixels holds one color index (0-3) per pixel, row-major.
	Pixels  []uint8
	X, Y    int
	Palette [4]uint8
	Alpha   [4]uint8
	Forced  bool
	// StopDelayTicks sets the stop-display delay in 90kHz/1024 units.
	// Zero omits the stop directive entirely.
	StopDelayTicks uint16
}

// BuildSubtitlePacket encodes a complete subtitle packet: run-length
// encoded even/odd planes followed by the control sequence chain.
func BuildSubtitlePacket(p Picture) []byte {
	if len(p.Pixels) != p.Width*p.Height {
		panic(fmt.Sprintf("picture is %dx%d but has %d pixels", p.Width, p.Height, len(p.Pixels)))
	}
	even := encodePlane(p, 0)
	odd := encodePlane(p, 1)

	evenOffset := 4
	oddOffset := evenOffset + len(even)
	ctrlOffset := oddOffset + len(odd)

	var ctrl []byte
	firstCmds := []byte{}
	if p.Forced {
		firstCmds = append(firstCmds, 0x00)
	}
	firstCmds = append(firstCmds, 0x01)
	firstCmds = append(firstCmds, 0x03, p.Palette[3]<<4|p.Palette[2], p.Palette[1]<<4|p.Palette[0])
	firstCmds = append(firstCmds, 0x04, p.Alpha[3]<<4|p.Alpha[2], p.Alpha[1]<<4|p.Alpha[0])
	x2 := p.X + p.Width - 1
	y2 := p.Y + p.Height - 1
	firstCmds = append(firstCmds, 0x05,
		byte(p.X>>4), byte(p.X&0x0F)<<4|byte(x2>>8), byte(x2),
		byte(p.Y>>4), byte(p.Y&0x0F)<<4|byte(y2>>8), byte(y2))
	offsetCmdAt := len(firstCmds)
	firstCmds = append(firstCmds, 0x06, 0, 0, 0, 0) // plane offsets patched below
	firstCmds = append(firstCmds, 0xFF)

	firstLen := 4 + len(firstCmds)
	if p.StopDelayTicks > 0 {
		// First sequence links to a stop sequence that links to itself.
		next := ctrlOffset + firstLen
		ctrl = appendSequence(ctrl, 0, next, firstCmds)
		ctrl = appendSequence(ctrl, p.StopDelayTicks, next, []byte{0x02, 0xFF})
	} else {
		ctrl = appendSequence(ctrl, 0, ctrlOffset, firstCmds)
	}

	packet := make([]byte, 0, ctrlOffset+len(ctrl))
	packet = append(packet, 0, 0, 0, 0)
	packet = append(packet, even...)
	packet = append(packet, odd...)
	packet = append(packet, ctrl...)

	binary.BigEndian.PutUint16(packet[0:2], uint16(len(packet)))
	binary.BigEndian.PutUint16(packet[2:4], uint16(ctrlOffset))

	// Patch the 0x06 directive with the real plane offsets.
	at := ctrlOffset + 4 + offsetCmdAt
	binary.BigEndian.PutUint16(packet[at+1:at+3], uint16(evenOffset))
	binary.BigEndian.PutUint16(packet[at+3:at+5], uint16(oddOffset))
	return packet
}

func appendSequence(dst []byte, delayTicks uint16, next int, cmds []byte) []byte {
	var head [4]byte
	binary.BigEndian.PutUint16(head[0:2], delayTicks)
	binary.BigEndian.PutUint16(head[2:4], uint16(next))
	dst = append(dst, head[:]...)
	return append(dst, cmds...)
}

// encodePlane run-length encodes every other scanline starting at row
// start. Runs longer than three pixels widen to the next code size; a
// count of zero fills to the end of the line.
func encodePlane(p Picture, start int) []byte {
	var nibbles []uint8
	for y := start; y < p.Height; y += 2 {
		row := p.Pixels[y*p.Width : (y+1)*p.Width]
		x := 0
		for x < p.Width {
			color := row[x]
			run := 1
			for x+run < p.Width && row[x+run] == color {
				run++
			}
			if x+run == p.Width {
				// End-of-line escape: 16-bit code with zero count.
				nibbles = append(nibbles, 0, 0, 0, color)
			} else {
				nibbles = appendRunCode(nibbles, color, run)
			}
			x += run
		}
		if len(nibbles)%2 == 1 {
			nibbles = append(nibbles, 0)
		}
	}
	out := make([]byte, len(nibbles)/2)
	for i := range out {
		out[i] = nibbles[i*2]<<4 | nibbles[i*2+1]
	}
	return out
}

func appendRunCode(nibbles []uint8, color uint8, run int) []uint8 {
	for run > 255 {
		nibbles = appendRunCode(nibbles, color, 255)
		run -= 255
	}
	v := uint16(run)<<2 | uint16(color)
	switch {
	case run <= 3:
		return append(nibbles, uint8(v))
	case run <= 15:
		return append(nibbles, uint8(v>>4), uint8(v&0xF))
	case run <= 63:
		return append(nibbles, uint8(v>>8), uint8(v>>4&0xF), uint8(v&0xF))
	default:
		return append(nibbles, uint8(v>>12), uint8(v>>8&0xF), uint8(v>>4&0xF), uint8(v&0xF))
	}
}

// WrapProgramStream splits packet into PES fragments of at most
// fragmentSize payload bytes, each preceded by an MPEG-2 pack header, and
// returns the resulting stream bytes.
func WrapProgramStream(packet []byte, fragmentSize int, substream byte) []byte {
	if fragmentSize <= 0 {
		fragmentSize = len(packet)
	}
	var out []byte
	for pos := 0; pos < len(packet); pos += fragmentSize {
		end := pos + fragmentSize
		if end > len(packet) {
			end = len(packet)
		}
		out = appendPackHeader(out)
		out = appendPES(out, substream, packet[pos:end])
	}
	return out
}

// AppendPadding appends a padding stream packet of the given payload size.
func AppendPadding(stream []byte, size int) []byte {
	stream = append(stream, 0x00, 0x00, 0x01, 0xBE, byte(size>>8), byte(size))
	return append(stream, make([]byte, size)...)
}

func appendPackHeader(out []byte) []byte {
	header := make([]byte, 14)
	header[2] = 0x01
	header[3] = 0xBA
	header[4] = 0x44 // fake SCR; decoders only need the stuffing count
	header[13] = 0xF8
	return append(out, header...)
}

func appendPES(out []byte, substream byte, payload []byte) []byte {
	pesLength := 3 + 1 + len(payload)
	out = append(out, 0x00, 0x00, 0x01, 0xBD, byte(pesLength>>8), byte(pesLength))
	out = append(out, 0x81, 0x00, 0x00) // flags, no PTS, zero header data
	out = append(out, substream)
	return append(out, payload...)
}

// IndexFile renders a minimal .idx document for the given entries, each
// written as "timestamp, hex offset".
func IndexFile(width, height int, palette []string, entries []IndexEntry) string {
	var b strings.Builder
	b.WriteString("# VobSub index file, v7 (do not modify this line!)\n")
	fmt.Fprintf(&b, "size: %dx%d\n", width, height)
	if len(palette) == 0 {
		palette = DefaultPaletteFields()
	}
	fmt.Fprintf(&b, "palette: %s\n", strings.Join(palette, ", "))
	for _, entry := range entries {
		fmt.Fprintf(&b, "timestamp: %s, filepos: %09x\n", entry.Timestamp, entry.Offset)
	}
	return b.String()
}

// IndexEntry pairs a textual timestamp with a stream offset for IndexFile.
type IndexEntry struct {
	Timestamp string // "HH:MM:SS:mmm"
	Offset    int64
}

// DefaultPaletteFields returns a 16-color palette whose first entries are
// black, dark gray, light gray, and white.
func DefaultPaletteFields() []string {
	fields := []string{"000000", "555555", "aaaaaa", "ffffff"}
	for len(fields) < 16 {
		fields = append(fields, "000000")
	}
	return fields
}
