// Package language normalizes user language input to the ISO 639-3 codes
// recognition models are named after.
package language
