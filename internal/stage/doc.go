// Package stage normalizes compressed staging inputs into plain delimited
// text.
//
// Two archive formats appear in practice: ".gz" handled in-process, and
// ".lzo" handled by shelling out to the lzop tool. The tool requirement is
// checked up front, before any archive is touched, and only when ".lzo"
// files are actually present. Archives are removed after successful
// extraction so a rerun sees only plain files.
package stage
