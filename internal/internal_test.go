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

package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog2NoCheckMatchesFloor(t *testing.T) {
	for _, x := range []uint32{1, 2, 3, 4, 5, 15, 16, 17, 255, 256, 257, 65535, 65536, 1 << 20} {
		want := uint32(math.Log2(float64(x)))
		require.Equal(t, want, Log2NoCheck(x), "x=%d", x)
	}
}

func TestComputeHistogramSumsToLength(t *testing.T) {
	block := make([]byte, 1000)

	for i := range block {
		block[i] = byte(i % 7)
	}

	freqs := make([]int, 256)
	ComputeHistogram(block, freqs)

	sum := 0

	for _, f := range freqs {
		sum += f
	}

	require.Equal(t, len(block), sum)
	require.Equal(t, len(block)/7+1, freqs[0])
}

func TestBufferStreamWriteReadRoundtrip(t *testing.T) {
	bs := NewBufferStream()
	n, err := bs.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, 11, bs.Len())

	buf := make([]byte, 11)
	n, err = bs.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, "hello world", string(buf))
}

func TestBufferStreamClosedRejectsIO(t *testing.T) {
	bs := NewBufferStream()
	require.NoError(t, bs.Close())

	_, err := bs.Write([]byte("x"))
	require.Error(t, err)

	_, err = bs.Read(make([]byte, 1))
	require.Error(t, err)
}

func TestBufferStreamBytesReturnsUnread(t *testing.T) {
	bs := NewBufferStream([]byte("seed"))
	require.Equal(t, []byte("seed"), bs.Bytes())
}
