// Package vobsub decodes DVD VobSub subtitle streams.
//
// A VobSub stream is a pair of files: a textual .idx index describing the
// frame geometry, the 16-color palette, and an ordered list of
// timestamp/offset pairs, and a binary .sub file holding the subtitle
// packets inside an MPEG-2 program stream.
//
// Decoding one subtitle runs in three steps, each with its own entry point:
//   - ParseIndex reads the .idx metadata
//   - ReadPacket reassembles one subtitle packet from the .sub stream
//   - DecodePacket parses the packet's control sequence and run-length
//     encoded bitmap into a Subtitle
//
// All three are pure functions over their inputs; the package keeps no
// global state.
package vobsub
