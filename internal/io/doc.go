// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File copying, moving and writing
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Page image validation, PNG normalization and page rendering
//
// # File Operations
//
//	// Move a finished document out of the scratch workspace
//	err := ioutils.MoveFile(ctx, "/tmp/manga-dl-1/attempt-0/chapter.pdf", "/home/me/Manga/Work_Chapter_1.pdf")
//
//	// Write data to file
//	err := ioutils.WriteFile(ctx, "/home/me/Manga/report.yaml", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/home/me/Manga")
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Re:Zero_Chapter_1") // Returns "Re_Zero_Chapter_1"
//
// # Image Processing
//
// The ImageService handles downloaded page images:
//
//	svc := ioutils.NewImageService()
//
//	// Full decode plus a 10x10 minimum size
//	err := svc.CheckQuality(path)
//
//	// Convert any supported format to PNG
//	pngPath, err := svc.Normalize(ctx, path)
package ioutils
