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

package bitstream

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockcodec/kodec/internal"
)

func TestWriteBitsAligned(t *testing.T) {
	for count := uint(1); count <= 64; count++ {
		bs := internal.NewBufferStream()
		w, err := NewBitWriter(bs, 16384)
		require.NoError(t, err)

		w.WriteBits(0x0123456789ABCDEF, count)
		require.NoError(t, w.Close())

		r, err := NewBitReader(bs, 16384)
		require.NoError(t, err)

		r.ReadBits(count)
		require.EqualValues(t, count, r.Read())
		require.NoError(t, r.Close())
	}
}

func TestWriteBitsMisaligned(t *testing.T) {
	values := make([]int, 200)
	rng := rand.New(rand.NewSource(1))

	for i := range values {
		mask := (1 << (1 + uint(i&63))) - 1
		values[i] = rng.Intn(1<<30) & mask
	}

	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)

	for i, v := range values {
		w.WriteBits(uint64(v), 1+uint(i&63))
	}

	require.NoError(t, w.Close())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)

	for i, v := range values {
		got := r.ReadBits(1 + uint(i&63))
		require.Equal(t, uint64(v), got, "value %d", i)
	}

	require.NoError(t, r.Close())
}

func TestWriteArrayAligned(t *testing.T) {
	input := make([]byte, 100)
	output := make([]byte, 100)
	rng := rand.New(rand.NewSource(2))
	rng.Read(input)

	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)

	count := uint(8 * len(input))
	w.WriteArray(input, count)
	require.NoError(t, w.Close())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)

	got := r.ReadArray(output, count)
	require.Equal(t, count, got)
	require.Equal(t, input, output)
	require.NoError(t, r.Close())
}

func TestWriteArrayMisaligned(t *testing.T) {
	input := make([]byte, 100)
	output := make([]byte, 100)
	rng := rand.New(rand.NewSource(3))
	rng.Read(input)

	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)

	count := uint(8*len(input) - 8)
	w.WriteBit(0)
	w.WriteArray(input[1:], count)
	require.NoError(t, w.Close())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)

	r.ReadBit()
	got := r.ReadArray(output[1:], count)
	require.Equal(t, count, got)
	require.Equal(t, input[1:], output[1:])
	require.NoError(t, r.Close())
}

func TestWrittenAndReadAccounting(t *testing.T) {
	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)

	w.WriteBits(0x1F, 5)
	w.WriteBits(0xABCD, 16)
	require.EqualValues(t, 21, w.Written())
	require.NoError(t, w.Close())
	require.EqualValues(t, 21, w.Written())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)

	r.ReadBits(5)
	require.EqualValues(t, 5, r.Read())
	r.ReadBits(16)
	require.EqualValues(t, 21, r.Read())
	require.NoError(t, r.Close())
}

func TestWriteAfterClosePanics(t *testing.T) {
	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.Panics(t, func() {
		w.WriteBit(1)
	})
}

func TestReadAfterClosePanics(t *testing.T) {
	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)
	w.WriteBits(1, 1)
	require.NoError(t, w.Close())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)
	r.ReadBit()
	require.NoError(t, r.Close())

	require.Panics(t, func() {
		r.ReadBit()
	})
}

func TestDebugWrappersDelegate(t *testing.T) {
	bs := internal.NewBufferStream()
	w, err := NewBitWriter(bs, 16384)
	require.NoError(t, err)
	dbgw, err := NewDebugBitWriter(w, noopWriter{})
	require.NoError(t, err)

	dbgw.WriteBits(0x42, 8)
	require.NoError(t, dbgw.Close())

	r, err := NewBitReader(bs, 16384)
	require.NoError(t, err)
	dbgr, err := NewDebugBitReader(r, noopWriter{})
	require.NoError(t, err)

	require.EqualValues(t, 0x42, dbgr.ReadBits(8))
	require.NoError(t, dbgr.Close())
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
