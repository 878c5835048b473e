package server

import "embed"

// webFS holds the portal's static front end. Its file list matches the
// default asset cache manifest.
//
//go:embed web
var webFS embed.FS
