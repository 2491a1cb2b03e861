// Package ocr defines the abstraction layer for plugging text-recognition
// engines (for example, Tesseract) into the document pipeline, and the
// extraction cascade that drives an engine across multiple pre-processed
// image variants and configurations. The engine interface is intentionally
// small and transport-agnostic so providers can be backed by local binaries,
// native libraries, or remote APIs without leaking provider-specific
// concerns into callers.
package ocr
