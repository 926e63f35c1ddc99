package vobsub

import "fmt"

// nibbleReader walks packet data half a byte at a time. Run-length codes
// are nibble-aligned; scanlines re-align to byte boundaries.
type nibbleReader struct {
	data []byte
	pos  int // nibble index: byte pos/2, high nibble when even
}

func (r *nibbleReader) next() (uint16, error) {
	byteIx := r.pos / 2
	if byteIx >= len(r.data) {
		return 0, fmt.Errorf("%w: run-length data exhausted", ErrCorruptRunLength)
	}
	b := r.data[byteIx]
	if r.pos%2 == 0 {
		b >>= 4
	} else {
		b &= 0x0F
	}
	r.pos++
	return uint16(b), nil
}

func (r *nibbleReader) alignByte() {
	if r.pos%2 == 1 {
		r.pos++
	}
}

// readCode reads one variable-width run-length code. Codes are widened a
// nibble at a time until the count field is in range; a final count of zero
// is the end-of-line escape (fill the rest of the scanline).
func (r *nibbleReader) readCode() (color uint8, count int, fill bool, err error) {
	v, err := r.next()
	if err != nil {
		return 0, 0, false, err
	}
	for _, limit := range []uint16{0x4, 0x10, 0x40} {
		if v >= limit {
			break
		}
		n, err := r.next()
		if err != nil {
			return 0, 0, false, err
		}
		v = v<<4 | n
	}
	color = uint8(v & 0x3)
	count = int(v >> 2)
	return color, count, count == 0, nil
}

// decodePlane fills every other scanline of pixels, starting at row start
// (0 for the even plane, 1 for the odd plane), from the run-length data
// beginning at the plane's byte offset.
func decodePlane(pixels []uint8, width, height, start int, data []byte) error {
	reader := &nibbleReader{data: data}
	for y := start; y < height; y += 2 {
		row := pixels[y*width : (y+1)*width]
		x := 0
		for x < width {
			color, count, fill, err := reader.readCode()
			if err != nil {
				return err
			}
			if fill {
				count = width - x
			}
			if x+count > width {
				return fmt.Errorf("%w: run of %d at column %d exceeds width %d", ErrCorruptRunLength, count, x, width)
			}
			for i := 0; i < count; i++ {
				row[x+i] = color
			}
			x += count
		}
		reader.alignByte()
	}
	return nil
}
