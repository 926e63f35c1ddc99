package vobsub

import (
	"encoding/binary"
	"fmt"
)

// MPEG-2 program stream start codes.
const (
	packStartCode    = 0x000001BA
	systemHeaderCode = 0x000001BB
	privateStream1   = 0x000001BD
	paddingStream    = 0x000001BE
)

const (
	packHeaderSize = 14
	pesHeaderSize  = 9
)

// ReadPacket reassembles one subtitle packet starting at offset in the .sub
// stream. A packet longer than one PES payload continues in the payloads of
// the following packs; intervening padding and system headers are skipped.
// The returned slice is exactly the packet's declared total size.
func ReadPacket(data []byte, offset int64) ([]byte, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, fmt.Errorf("%w: offset %d outside stream of %d bytes", ErrTruncatedStream, offset, len(data))
	}

	var (
		packet    []byte
		declared  = -1
		pos       = offset
		substream = -1
	)

	for declared < 0 || len(packet) < declared {
		payload, next, err := nextPayload(data, pos, &substream)
		if err != nil {
			return nil, err
		}
		pos = next
		packet = append(packet, payload...)

		if declared < 0 {
			if len(packet) < 2 {
				continue
			}
			declared = int(binary.BigEndian.Uint16(packet[:2]))
			if declared < 4 {
				return nil, fmt.Errorf("%w: declared packet size %d", ErrInvalidPacketHeader, declared)
			}
		}
	}

	if len(packet) > declared {
		packet = packet[:declared]
	}
	return packet, nil
}

// nextPayload advances through container framing from pos and returns the
// next private-stream-1 payload with its substream id byte stripped.
// The substream id seen first is pinned; payloads for other substreams at
// the same offset are rejected as header corruption.
func nextPayload(data []byte, pos int64, substream *int) ([]byte, int64, error) {
	for {
		if int64(len(data))-pos < 4 {
			return nil, 0, fmt.Errorf("%w: need start code at offset %d", ErrTruncatedStream, pos)
		}
		code := binary.BigEndian.Uint32(data[pos : pos+4])
		switch code {
		case packStartCode:
			if int64(len(data))-pos < packHeaderSize {
				return nil, 0, fmt.Errorf("%w: pack header at offset %d", ErrTruncatedStream, pos)
			}
			// MPEG-2 pack: low 3 bits of byte 13 count stuffing bytes.
			stuffing := int64(data[pos+13] & 0x07)
			pos += packHeaderSize + stuffing
		case systemHeaderCode, paddingStream:
			if int64(len(data))-pos < 6 {
				return nil, 0, fmt.Errorf("%w: header length at offset %d", ErrTruncatedStream, pos)
			}
			length := int64(binary.BigEndian.Uint16(data[pos+4 : pos+6]))
			pos += 6 + length
		case privateStream1:
			payload, next, match, err := pesPayload(data, pos, substream)
			if err != nil {
				return nil, 0, err
			}
			if !match {
				// Payload for a different subtitle track interleaved in
				// the same stream; keep scanning.
				pos = next
				continue
			}
			return payload, next, nil
		default:
			return nil, 0, fmt.Errorf("%w: unexpected start code %#08x at offset %d", ErrInvalidPacketHeader, code, pos)
		}
	}
}

func pesPayload(data []byte, pos int64, substream *int) ([]byte, int64, bool, error) {
	if int64(len(data))-pos < pesHeaderSize {
		return nil, 0, false, fmt.Errorf("%w: PES header at offset %d", ErrTruncatedStream, pos)
	}
	pesLength := int64(binary.BigEndian.Uint16(data[pos+4 : pos+6]))
	end := pos + 6 + pesLength
	if end > int64(len(data)) {
		return nil, 0, false, fmt.Errorf("%w: PES packet at offset %d runs past stream end", ErrTruncatedStream, pos)
	}

	headerDataLength := int64(data[pos+8])
	payloadStart := pos + pesHeaderSize + headerDataLength
	if payloadStart >= end {
		return nil, 0, false, fmt.Errorf("%w: PES header length %d leaves no payload", ErrInvalidPacketHeader, headerDataLength)
	}

	// First payload byte selects the subtitle substream (0x20-0x3f).
	// The id seen at the packet's first fragment is pinned so fragments of
	// other tracks interleaved in the stream are skipped.
	id := int(data[payloadStart])
	if *substream < 0 {
		*substream = id
	} else if id != *substream {
		return nil, end, false, nil
	}

	return data[payloadStart+1 : end], end, true, nil
}
