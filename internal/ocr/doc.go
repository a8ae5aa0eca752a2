// Package ocr turns subtitle rasters into text.
//
// Recognition is delegated to an Engine; the bundled Tesseract engine shells
// out to the tesseract binary with a PNG on stdin. Prepare converts a PGS
// raster (coloured text on a transparent background) into the high-contrast
// grayscale image tesseract reads best, and Clean repairs the handful of
// misreads that subtitle fonts reliably produce.
package ocr
