//go:build embed
// +build embed

package main

import "embed"

//go:embed ui/dist/*
var uiFiles embed.FS

var uiEmbedded = true
