// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// dysv5w - DY-SV5W MP3 Module Control Tool
//
// A CLI tool for driving DY-SV5W family MP3 decoder modules over their
// UART protocol and decoding the traffic in human-readable form.

package main

import (
	"os"

	"github.com/Thermoquad/dysv5w/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
