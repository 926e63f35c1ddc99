// Package srt assembles recognized subtitle text into SubRip output.
package srt
