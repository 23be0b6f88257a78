// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dysv5w

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Device drives one DY-SV5W module through an exclusively owned
// transport.
//
// Every method issues exactly one frame and, for queries, reads exactly
// one reply before returning. Methods must not be called concurrently.
type Device struct {
	transport Transport
	cfg       Config
	log       *zap.Logger
}

// New creates a Device that owns t for its whole lifetime.
func New(t Transport, opts ...Option) *Device {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Device{
		transport: t,
		cfg:       cfg,
		log:       cfg.Logger,
	}
}

// Close releases the transport if it holds resources.
func (d *Device) Close() error {
	if c, ok := d.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SetVolume sets the output volume. The module accepts 0 to MaxVolume;
// the value is sent as given.
func (d *Device) SetVolume(ctx context.Context, volume uint8) {
	d.send(ctx, OpSetVolume, volume)
}

// Play starts or resumes playback.
func (d *Device) Play(ctx context.Context) {
	d.send(ctx, OpPlay)
}

// Pause pauses playback.
func (d *Device) Pause(ctx context.Context) {
	d.send(ctx, OpPause)
}

// Stop stops playback.
func (d *Device) Stop(ctx context.Context) {
	d.send(ctx, OpStop)
}

// Previous skips to the previous track.
func (d *Device) Previous(ctx context.Context) {
	d.send(ctx, OpPrevious)
}

// Next skips to the next track.
func (d *Device) Next(ctx context.Context) {
	d.send(ctx, OpNext)
}

// VolumeUp raises the volume by one step.
func (d *Device) VolumeUp(ctx context.Context) {
	d.send(ctx, OpVolumeUp)
}

// VolumeDown lowers the volume by one step.
func (d *Device) VolumeDown(ctx context.Context) {
	d.send(ctx, OpVolumeDown)
}

// StopPlaying ends the current playback.
func (d *Device) StopPlaying(ctx context.Context) {
	d.send(ctx, OpStopPlaying)
}

// SpecifySong plays the song with the given index.
func (d *Device) SpecifySong(ctx context.Context, song uint16) {
	d.send(ctx, OpSpecifySong, encodeWord(song)...)
}

// SetCycleTimes sets how many times playback repeats.
func (d *Device) SetCycleTimes(ctx context.Context, times uint16) {
	d.send(ctx, OpSetCycleTimes, encodeWord(times)...)
}

// SetEqualizerMode selects an equalizer preset.
func (d *Device) SetEqualizerMode(ctx context.Context, mode EqualizerMode) {
	d.send(ctx, OpSetEqualizer, byte(mode))
}

// SwitchDrive switches playback to another storage drive.
func (d *Device) SwitchDrive(ctx context.Context, drive Drive) {
	d.send(ctx, OpSwitchDrive, byte(drive))
}

// QueryPlayStatus asks the module for its playback state.
// An unrecognized state byte fails with ErrUnknownPlayState.
func (d *Device) QueryPlayStatus(ctx context.Context) (PlayState, error) {
	payload, err := d.query(ctx, OpQueryPlayStatus, replySizeState, checkPlayState)
	if err != nil {
		return 0, err
	}
	state, _ := PlayStateFromByte(payload[0])
	return state, nil
}

// QueryCurrentPlayDrive asks which drive playback is using.
func (d *Device) QueryCurrentPlayDrive(ctx context.Context) (Drive, error) {
	payload, err := d.query(ctx, OpQueryPlayDrive, replySizeState, nil)
	if err != nil {
		return DriveNoDevice, err
	}
	return DriveFromByte(payload[0]), nil
}

// QueryOnlineDrive asks which drive is currently online.
func (d *Device) QueryOnlineDrive(ctx context.Context) (Drive, error) {
	payload, err := d.query(ctx, OpQueryOnlineDrive, replySizeState, nil)
	if err != nil {
		return DriveNoDevice, err
	}
	return DriveFromByte(payload[0]), nil
}

// QuerySongCount asks for the number of songs on the current drive.
func (d *Device) QuerySongCount(ctx context.Context) (uint16, error) {
	payload, err := d.query(ctx, OpQuerySongCount, replySizeWord, nil)
	if err != nil {
		return 0, err
	}
	return decodeWord(payload), nil
}

// QueryCurrentSong asks for the index of the current song.
func (d *Device) QueryCurrentSong(ctx context.Context) (uint16, error) {
	payload, err := d.query(ctx, OpQueryCurrentSong, replySizeWord, nil)
	if err != nil {
		return 0, err
	}
	return decodeWord(payload), nil
}

// send encodes and transmits one frame. Transport failures are logged
// and passed to observers but never returned: commands are best-effort.
func (d *Device) send(ctx context.Context, opcode byte, payload ...byte) {
	frame := EncodeFrame(opcode, payload...)
	err := d.transport.Send(ctx, frame)
	if err != nil {
		d.log.Warn("send failed",
			zap.String("op", FormatOpcode(opcode)),
			zap.String("frame", FormatHex(frame)),
			zap.Error(err))
	} else {
		d.log.Debug("tx",
			zap.String("op", FormatOpcode(opcode)),
			zap.String("frame", FormatHex(frame)))
	}
	for _, o := range d.cfg.Observers {
		o.OnSend(opcode, frame, err)
	}
}

// checkPlayState rejects play status replies outside the known states.
func checkPlayState(payload []byte) error {
	if _, ok := PlayStateFromByte(payload[0]); !ok {
		return fmt.Errorf("%s: %w: 0x%02X", FormatOpcode(OpQueryPlayStatus), ErrUnknownPlayState, payload[0])
	}
	return nil
}

// query sends a zero-payload request and reads its reply. check, when
// given, rejects structurally valid payloads that do not decode.
func (d *Device) query(ctx context.Context, opcode byte, size int, check func([]byte) error) ([]byte, error) {
	d.send(ctx, opcode)

	payload, err := readResponse(ctx, d.transport, opcode, size, d.cfg.VerifyChecksum)
	if err == nil && check != nil {
		err = check(payload)
	}
	if err != nil {
		payload = nil
		d.log.Debug("rx failed", zap.String("op", FormatOpcode(opcode)), zap.Error(err))
	} else {
		d.log.Debug("rx", zap.String("op", FormatOpcode(opcode)), zap.String("payload", FormatHex(payload)))
	}

	d.notifyResponse(opcode, payload, err)
	return payload, err
}

func (d *Device) notifyResponse(opcode byte, payload []byte, err error) {
	for _, o := range d.cfg.Observers {
		o.OnResponse(opcode, payload, err)
	}
}
