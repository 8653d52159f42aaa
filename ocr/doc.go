// Package ocr recognizes text in scanned documents. Engines are pluggable
// behind the Engine interface; Recognizer turns a PDF or image path into
// page-delimited text by rasterizing, preprocessing and recognizing each page.
package ocr
