// Package language normalizes the language tags found on subtitle streams.
//
// Container tags arrive as ISO 639-1 codes, ISO 639-2 bibliographic or
// terminologic codes, BCP 47 tags or plain English words. A small table
// covers the languages subtitle discs actually ship with; anything else is
// resolved through golang.org/x/text/language. The package also maps
// languages to the traineddata names tesseract expects.
package language
