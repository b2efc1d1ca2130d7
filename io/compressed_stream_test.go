/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package io

import (
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	kodec "github.com/blockcodec/kodec"
	"github.com/blockcodec/kodec/bitstream"
	"github.com/blockcodec/kodec/internal"
)

func readAll(t *testing.T, bs *internal.BufferStream, cfg Config) []byte {
	is, err := NewCompressedInputStream(bs, cfg)
	require.NoError(t, err)

	out, err := io.ReadAll(is)
	require.NoError(t, err)
	require.NoError(t, is.Close())
	return out
}

// S1: empty input, checksum off, jobs=1, blockSize=1024: output is exactly
// the 96-bit header plus the 8-bit end marker, i.e. 13 bytes.
func TestEmptyStreamSize(t *testing.T) {
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 1024, Jobs: 1}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)
	require.NoError(t, os.Close())
	require.Equal(t, 13, bs.Len())

	out := readAll(t, bs, Config{Jobs: 1})
	require.Empty(t, out)
}

// S2: a 3-byte input always takes the small-block copy path regardless of
// the configured transform/entropy: mode byte 0x83, raw payload, then the
// 0x80 end marker.
func TestSmallBlockModeByte(t *testing.T) {
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 1024, Jobs: 1}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	n, err := os.Write([]byte("ABC"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.NoError(t, os.Close())

	r, err := bitstream.NewBitReader(bs, 16384)
	require.NoError(t, err)

	r.ReadBits(64) // header, first 64 bits
	r.ReadBits(32) // header, last 32 bits

	mode := r.ReadBits(8)
	require.EqualValues(t, 0x83, mode)

	payload := make([]byte, 3)
	r.ReadArray(payload, 24)
	require.Equal(t, []byte("ABC"), payload)

	marker := r.ReadBits(8)
	require.EqualValues(t, 0x80, marker)
	require.NoError(t, r.Close())
}

// S3: a large, highly compressible input round-trips exactly through a
// multi-job pipeline with a real transform and entropy stage.
func TestRoundtripLargeMultiJob(t *testing.T) {
	data := make([]byte, 1<<20)
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "RLT", Entropy: "FLATE", BlockSize: 64 * 1024, Jobs: 4, Checksum: true}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	_, err = os.Write(data)
	require.NoError(t, err)
	require.NoError(t, os.Close())

	out := readAll(t, bs, Config{Jobs: 4})
	require.Equal(t, data, out)
}

// A transform that fails to build must not leave its successors spinning on
// the ordering barrier forever: the barrier has to be entered and released
// for every block id regardless of whether preparation succeeded.
func TestEncodeBlockPrepFailureDoesNotDeadlock(t *testing.T) {
	blockSize := 1024
	data := make([]byte, blockSize*4)
	rand.New(rand.NewSource(42)).Read(data)

	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: blockSize, Jobs: 4}

	cos, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	// Force every block's transform build to fail before it ever reaches
	// the barrier, simulating a block whose preparation work errors out.
	cos.transformType = 0xFFFF

	done := make(chan error, 1)

	go func() {
		_, werr := cos.Write(data)
		done <- werr
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Write deadlocked waiting on the ordering barrier after a block preparation failure")
	}
}

// Ordering: regardless of which goroutine finishes its transform/entropy
// work first, AFTER_ENTROPY events for full-size blocks fire in strict
// block-id order because the barrier serializes the write+notify section.
func TestBlockOrderingUnderParallelJobs(t *testing.T) {
	blockSize := 16 * 1024
	data := make([]byte, blockSize*16)
	rng := rand.New(rand.NewSource(7))
	rng.Read(data)

	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: blockSize, Jobs: 4}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	lst := &orderListener{}
	os.AddListener(lst)

	_, err = os.Write(data)
	require.NoError(t, err)
	require.NoError(t, os.Close())

	lst.mu.Lock()
	defer lst.mu.Unlock()
	require.Len(t, lst.ids, 16)

	for i, id := range lst.ids {
		require.Equal(t, i+1, id)
	}
}

type orderListener struct {
	mu  sync.Mutex
	ids []int
}

func (this *orderListener) ProcessEvent(evt *kodec.Event) {
	if evt.Type() != kodec.EVT_AFTER_ENTROPY {
		return
	}

	this.mu.Lock()
	this.ids = append(this.ids, evt.ID())
	this.mu.Unlock()
}

// S5: checksum on, tamper with a payload byte after encoding, decoding must
// fail rather than silently return corrupt data.
func TestChecksumDetectsTampering(t *testing.T) {
	data := make([]byte, 64*1024)

	for i := range data {
		data[i] = byte(i)
	}

	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 4096, Jobs: 1, Checksum: true}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	_, err = os.Write(data)
	require.NoError(t, err)
	require.NoError(t, os.Close())

	raw := bs.Bytes()
	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered[len(tampered)/2] ^= 0xFF

	is, err := NewCompressedInputStream(internal.NewBufferStream(tampered), Config{Jobs: 1})
	require.NoError(t, err)

	_, err = io.ReadAll(is)
	require.Error(t, err)
}

// S7: the last 8 bits of the meaningful payload are the end marker 0x80.
func TestEndMarkerByte(t *testing.T) {
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 1024, Jobs: 1}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)

	_, err = os.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, os.Close())

	raw := bs.Bytes()
	require.EqualValues(t, 0x80, raw[len(raw)-1])
}

// Idempotent close: a second Close on either stream is a silent no-op.
func TestIdempotentClose(t *testing.T) {
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 1024, Jobs: 1}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)
	require.NoError(t, os.Close())
	require.NoError(t, os.Close())

	is, err := NewCompressedInputStream(bs, Config{Jobs: 1})
	require.NoError(t, err)
	require.NoError(t, is.Close())
	require.NoError(t, is.Close())
}

// Writing after Close returns StreamClosed rather than panicking.
func TestOperationsAfterCloseFail(t *testing.T) {
	bs := internal.NewBufferStream()
	cfg := Config{Transform: "NONE", Entropy: "NONE", BlockSize: 1024, Jobs: 1}

	os, err := NewCompressedOutputStream(bs, cfg)
	require.NoError(t, err)
	require.NoError(t, os.Close())

	_, err = os.Write([]byte("x"))
	require.Error(t, err)
	require.Equal(t, kodec.StreamClosed, kodec.KindOf(err))
}

func TestSingleJobMatchesMultiJobOutput(t *testing.T) {
	data := make([]byte, 256*1024)
	rng := rand.New(rand.NewSource(11))
	rng.Read(data)

	bs1 := internal.NewBufferStream()
	cfg1 := Config{Transform: "RLT", Entropy: "NONE", BlockSize: 32 * 1024, Jobs: 1}
	os1, err := NewCompressedOutputStream(bs1, cfg1)
	require.NoError(t, err)
	_, err = os1.Write(data)
	require.NoError(t, err)
	require.NoError(t, os1.Close())

	bs2 := internal.NewBufferStream()
	cfg2 := Config{Transform: "RLT", Entropy: "NONE", BlockSize: 32 * 1024, Jobs: 4}
	os2, err := NewCompressedOutputStream(bs2, cfg2)
	require.NoError(t, err)
	_, err = os2.Write(data)
	require.NoError(t, err)
	require.NoError(t, os2.Close())

	require.Equal(t, bs1.Bytes(), bs2.Bytes())
}

func TestInvalidBlockSizeRejected(t *testing.T) {
	bs := internal.NewBufferStream()
	_, err := NewCompressedOutputStream(bs, Config{BlockSize: 17, Jobs: 1})
	require.Error(t, err)
	require.Equal(t, kodec.InvalidArgument, kodec.KindOf(err))
}

func TestInvalidJobsRejected(t *testing.T) {
	bs := internal.NewBufferStream()
	_, err := NewCompressedOutputStream(bs, Config{BlockSize: 1024, Jobs: 17})
	require.Error(t, err)
	require.Equal(t, kodec.InvalidArgument, kodec.KindOf(err))
}

func TestInvalidMagicRejected(t *testing.T) {
	bs := internal.NewBufferStream(make([]byte, 32))
	_, err := NewCompressedInputStream(bs, Config{Jobs: 1})
	require.Error(t, err)
	require.Equal(t, kodec.InvalidFormat, kodec.KindOf(err))
}
