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

package entropy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockcodec/kodec/bitstream"
	"github.com/blockcodec/kodec/internal"
)

func roundtrip(t *testing.T, entropyType uint32, src []byte) {
	bs := internal.NewBufferStream()
	w, err := bitstream.NewBitWriter(bs, 16384)
	require.NoError(t, err)

	enc, err := NewEntropyEncoder(w, nil, entropyType)
	require.NoError(t, err)

	n, err := enc.Write(src)
	require.NoError(t, err)
	require.Equal(t, len(src), n)
	enc.Dispose()
	require.NoError(t, w.Close())

	r, err := bitstream.NewBitReader(bs, 16384)
	require.NoError(t, err)

	dec, err := NewEntropyDecoder(r, nil, entropyType)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	_, err = dec.Read(dst)
	require.NoError(t, err)
	dec.Dispose()
	require.NoError(t, r.Close())

	require.Equal(t, src, dst)
}

func TestNullEntropyRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, 5000)
	rng.Read(src)
	roundtrip(t, NONE_TYPE, src)
}

func TestNullEntropyRoundtripLarge(t *testing.T) {
	src := make([]byte, (1<<23)+100)

	for i := range src {
		src[i] = byte(i)
	}

	roundtrip(t, NONE_TYPE, src)
}

func TestFlateEntropyRoundtrip(t *testing.T) {
	src := make([]byte, 8192)

	for i := range src {
		src[i] = byte(i % 7)
	}

	roundtrip(t, FLATE_TYPE, src)
}

func TestFlateEntropyRoundtripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := make([]byte, 2048)
	rng.Read(src)
	roundtrip(t, FLATE_TYPE, src)
}

func TestGetNameGetType(t *testing.T) {
	for _, name := range []string{"NONE", "FLATE"} {
		typ, err := GetType(name)
		require.NoError(t, err)

		got, err := GetName(typ)
		require.NoError(t, err)
		require.Equal(t, name, got)
	}
}

func TestGetTypeRejectsUnknown(t *testing.T) {
	_, err := GetType("HUFFMAN")
	require.Error(t, err)
}

func TestNewEntropyEncoderRejectsUnknownType(t *testing.T) {
	bs := internal.NewBufferStream()
	w, err := bitstream.NewBitWriter(bs, 16384)
	require.NoError(t, err)

	_, err = NewEntropyEncoder(w, nil, uint32(99))
	require.Error(t, err)
}
