// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

// CalculateChecksum computes the frame checksum: the low byte of the
// 16-bit sum of data. This is a plain additive checksum, not a CRC.
func CalculateChecksum(data []byte) byte {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return byte(sum & 0xFF)
}
