package vobsub

import "errors"

var (
	// ErrMalformedIndex indicates the .idx file is missing a required field
	// or a field failed to parse. Fatal for the whole run.
	ErrMalformedIndex = errors.New("malformed index")

	// ErrTruncatedStream indicates the .sub data ended before a packet's
	// declared size was assembled.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrInvalidPacketHeader indicates inconsistent container or packet
	// header fields at the requested offset.
	ErrInvalidPacketHeader = errors.New("invalid packet header")

	// ErrCorruptRunLength indicates a run-length code overflowed its
	// scanline or the encoded data ran out mid-raster.
	ErrCorruptRunLength = errors.New("corrupt run-length data")

	// ErrUnsupportedControl indicates a control directive outside the
	// recognized set. Fatal for the affected subtitle only.
	ErrUnsupportedControl = errors.New("unsupported control sequence")
)
