package main

import "github.com/lsmon/nativedeps/cmd/nativedeps/internal"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	internal.Execute(Version)
}
