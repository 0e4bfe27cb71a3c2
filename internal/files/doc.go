// Package files provides file-related functionality organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Staging directory discovery and CSV file metadata extraction
//
// # Usage
//
//	import (
//	    "github.com/omopkit/omopload/internal/files/filesystem"
//	    "github.com/omopkit/omopload/internal/files/scanner"
//	)
//
//	fileScanner := scanner.NewScanner()
//	result, err := fileScanner.ScanDirectory("./staging")
//
// The filesystem abstraction exists so scanning and parameter-file reading
// can be tested against an in-memory tree without touching disk.
package files
