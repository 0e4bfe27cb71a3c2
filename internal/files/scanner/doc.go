// Package scanner provides staged source file discovery for the bulk loader.
//
// The scanner package is responsible for:
//   - Resolving each registered CDM table to its staged file or chunk series
//   - Applying the single-file-wins rule when both a complete file and
//     chunk remnants are present
//   - Excluding still-compressed ".lzo" remnants from the load set
//   - Tagging each file with its COPY flavor (delimiter, header row)
//
// The scanner is designed to be filesystem-agnostic through the use of the
// filesystem.FileSystemProvider interface, enabling both production use
// with the OS filesystem and testing with in-memory filesystems.
package scanner
