// Package render drives external engraving tools (MuseScore, Verovio) to
// produce fixed-layout score files from MusicXML.
package render
