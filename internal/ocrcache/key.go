package ocrcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"sort"
)

// Key derives a cache key from the exact line image content plus the
// language and engine options that shape its interpretation.
func Key(img *image.Gray, language string, options map[string]string) string {
	h := sha256.New()

	bounds := img.Bounds()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(bounds.Dx()))
	binary.LittleEndian.PutUint32(dims[4:8], uint32(bounds.Dy()))
	h.Write(dims[:])

	// Hash rows individually so stride padding never leaks into the key.
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := img.PixOffset(bounds.Min.X, y)
		h.Write(img.Pix[start : start+bounds.Dx()])
	}

	h.Write([]byte{0})
	h.Write([]byte(language))

	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		h.Write([]byte{0})
		h.Write([]byte(key))
		h.Write([]byte{'='})
		h.Write([]byte(options[key]))
	}

	return hex.EncodeToString(h.Sum(nil))
}
