// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomPayload(rng *rand.Rand, max int) []byte {
	p := make([]byte, rng.Intn(max+1))
	rng.Read(p)
	return p
}

// TestFuzzDecoder_RandomBytes feeds random bytes to the passive decoder
// and verifies every emitted frame re-encodes to itself
func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewFrameDecoder()
		data := make([]byte, rng.Intn(512)+1)
		rng.Read(data)

		for _, b := range data {
			frame, err := d.DecodeByte(b)
			if err == nil && frame != nil && !frame.ChecksumValid() {
				t.Fatalf("Round %d: decoder emitted frame with bad checksum: % X", i, frame.Bytes())
			}
		}
	}
}

// TestFuzzDecoder_RandomFrames encodes random frames and decodes them back
func TestFuzzDecoder_RandomFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		opcode := byte(rng.Intn(256))
		payload := randomPayload(rng, MaxPayloadSize)
		encoded := EncodeFrame(opcode, payload...)

		frame, err := DecodeFrame(encoded)
		if err != nil {
			t.Errorf("Round %d: decode error: %v", i, err)
			continue
		}
		if !bytes.Equal(frame.Bytes(), encoded) {
			t.Errorf("Round %d: re-encoded % X, want % X", i, frame.Bytes(), encoded)
		}
	}
}

// TestFuzzResponseReader_RandomReplies feeds random reply streams to every
// query and checks that a result is only produced from a well-formed frame
func TestFuzzResponseReader_RandomReplies(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	queries := []struct {
		opcode byte
		size   int
	}{
		{OpQueryPlayStatus, replySizeState},
		{OpQueryOnlineDrive, replySizeState},
		{OpQueryPlayDrive, replySizeState},
		{OpQuerySongCount, replySizeWord},
		{OpQueryCurrentSong, replySizeWord},
	}

	for i := 0; i < rounds; i++ {
		q := queries[rng.Intn(len(queries))]

		var rx []byte
		if rng.Intn(2) == 0 {
			// Mostly-valid reply with one corrupted byte
			rx = EncodeFrame(q.opcode, randomPayload(rng, q.size)...)
			rx[rng.Intn(len(rx))] ^= byte(rng.Intn(255) + 1)
		} else {
			rx = randomPayload(rng, 8)
		}

		verify := rng.Intn(2) == 0
		payload, err := readResponse(context.Background(), newScript(rx...), q.opcode, q.size, verify)

		if err != nil {
			var re *ResponseError
			if !errors.As(err, &re) {
				t.Fatalf("Round %d: error is not a ResponseError: %v", i, err)
			}
			if payload != nil {
				t.Errorf("Round %d: payload % X returned with error", i, payload)
			}
			continue
		}

		if len(payload) != q.size {
			t.Errorf("Round %d: payload length %d, want %d", i, len(payload), q.size)
		}
		if rx[0] != StartByte || rx[1] != q.opcode || int(rx[2]) != q.size {
			t.Errorf("Round %d: accepted malformed header % X", i, rx[:3])
		}
		if verify && rx[3+q.size] != CalculateChecksum(rx[:3+q.size]) {
			t.Errorf("Round %d: accepted bad checksum with verification on: % X", i, rx)
		}
	}
}
