// Command vobscribe converts DVD VobSub subtitles (.idx/.sub) into plain
// text SubRip files using an external OCR engine.
package main
