//go:build !embed
// +build !embed

package main

import "embed"

// Stub embed.FS variable for linting/development when embed tag is not set.
// The UI is served from the configured UIPath directory instead.
var uiFiles embed.FS

var uiEmbedded = false
