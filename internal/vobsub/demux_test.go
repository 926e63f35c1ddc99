package vobsub_test

import (
	"bytes"
	"errors"
	"testing"

	"vobscribe/internal/testsupport"
	"vobscribe/internal/vobsub"
)

func checkerboard(width, height int) []uint8 {
	pixels := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels[y*width+x] = uint8((x + y) % 4)
		}
	}
	return pixels
}

func testPicture(width, height int) testsupport.Picture {
	return testsupport.Picture{
		Width:   width,
		Height:  height,
		Pixels:  checkerboard(width, height),
		X:       100,
		Y:       400,
		Palette: [4]uint8{0, 1, 2, 3},
		Alpha:   [4]uint8{0, 15, 15, 15},
	}
}

func TestReadPacketSingleFragment(t *testing.T) {
	packet := testsupport.BuildSubtitlePacket(testPicture(16, 4))
	stream := testsupport.WrapProgramStream(packet, 0, 0x20)

	got, err := vobsub.ReadPacket(stream, 0)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if !bytes.Equal(got, packet) {
		t.Fatalf("reassembled packet differs: got %d bytes, want %d", len(got), len(packet))
	}
}

func TestReadPacketReassemblesFragments(t *testing.T) {
	packet := testsupport.BuildSubtitlePacket(testPicture(64, 12))
	stream := testsupport.WrapProgramStream(packet, 37, 0x20)

	got, err := vobsub.ReadPacket(stream, 0)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if !bytes.Equal(got, packet) {
		t.Fatalf("reassembled packet differs from original")
	}
}

func TestReadPacketSkipsPaddingBetweenFragments(t *testing.T) {
	packet := testsupport.BuildSubtitlePacket(testPicture(64, 12))
	half := len(packet) / 2

	var stream []byte
	stream = append(stream, testsupport.WrapProgramStream(packet[:half], 0, 0x20)...)
	stream = testsupport.AppendPadding(stream, 2048)
	stream = append(stream, testsupport.WrapProgramStream(packet[half:], 0, 0x20)...)

	got, err := vobsub.ReadPacket(stream, 0)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if !bytes.Equal(got, packet) {
		t.Fatalf("reassembled packet differs from original")
	}
}

func TestReadPacketAtNonzeroOffset(t *testing.T) {
	first := testsupport.BuildSubtitlePacket(testPicture(16, 4))
	second := testsupport.BuildSubtitlePacket(testPicture(24, 6))

	stream := testsupport.WrapProgramStream(first, 0, 0x20)
	offset := int64(len(stream))
	stream = append(stream, testsupport.WrapProgramStream(second, 0, 0x20)...)

	got, err := vobsub.ReadPacket(stream, offset)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("expected second packet at offset %d", offset)
	}
}

func TestReadPacketTruncatedStream(t *testing.T) {
	packet := testsupport.BuildSubtitlePacket(testPicture(64, 12))
	stream := testsupport.WrapProgramStream(packet, 0, 0x20)

	_, err := vobsub.ReadPacket(stream[:len(stream)-10], 0)
	if !errors.Is(err, vobsub.ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestReadPacketRejectsBadStartCode(t *testing.T) {
	stream := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00}
	_, err := vobsub.ReadPacket(stream, 0)
	if !errors.Is(err, vobsub.ErrInvalidPacketHeader) {
		t.Fatalf("expected ErrInvalidPacketHeader, got %v", err)
	}
}

func TestReadPacketOffsetOutsideStream(t *testing.T) {
	_, err := vobsub.ReadPacket([]byte{0x00}, 500)
	if !errors.Is(err, vobsub.ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}
