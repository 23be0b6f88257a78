// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Console is a debugging transport: outbound frames are printed as hex
// and every inbound byte is typed in by hand, one per line.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole reads bytes from in and writes frames and prompts to out
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Send prints the frame
func (c *Console) Send(ctx context.Context, data []byte) error {
	var b strings.Builder
	b.WriteString("Serial OUT: ")
	for _, v := range data {
		fmt.Fprintf(&b, "0x%02x ", v)
	}
	b.WriteString("\n")
	_, err := io.WriteString(c.out, b.String())
	return err
}

// ReceiveByte prompts for one hex byte. Input that is not a single hex
// byte counts as no byte.
func (c *Console) ReceiveByte(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fmt.Fprintln(c.out, "Enter hex value: ")

	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, err
	}
	return ParseHexByte(line)
}

// ParseHexByte parses one byte written in hex, with an optional 0x or 0X
// prefix.
func ParseHexByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(s, "0x")
	if digits == s {
		digits = strings.TrimPrefix(s, "0X")
	}
	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid hex byte %q", s)
	}
	return byte(v), nil
}
