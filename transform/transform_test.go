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

package transform

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	kodec "github.com/blockcodec/kodec"
)

func roundtrip(t *testing.T, transformType uint16, src []byte) {
	ctx := map[string]interface{}{"blockSize": len(src)}

	seq, err := New(&ctx, transformType)
	require.NoError(t, err)

	dst := make([]byte, seq.MaxEncodedLen(len(src)))
	_, fLen, err := seq.Forward(src, dst)
	require.NoError(t, err)

	back, err := New(&ctx, transformType)
	require.NoError(t, err)
	back.SetSkipFlags(seq.SkipFlags())

	rev := make([]byte, len(src))
	_, rLen, err := back.Inverse(dst[:fLen], rev)
	require.NoError(t, err)
	require.EqualValues(t, len(src), rLen)
	require.Equal(t, src, rev[:rLen])
}

func TestRoundtripNone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, 4096)
	rng.Read(src)
	roundtrip(t, NONE_TYPE<<uint(_MAX_SHIFT), src)
}

func TestRoundtripRLT(t *testing.T) {
	src := make([]byte, 4096)

	for i := range src {
		if i < 2048 {
			src[i] = 7
		} else {
			src[i] = byte(i)
		}
	}

	typ, err := GetType("RLT")
	require.NoError(t, err)
	roundtrip(t, typ, src)
}

func TestRoundtripZRLT(t *testing.T) {
	src := make([]byte, 4096)

	for i := 100; i < 3000; i++ {
		src[i] = 0
	}

	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 100; i++ {
		src[i] = byte(rng.Intn(256))
	}

	for i := 3000; i < len(src); i++ {
		src[i] = byte(rng.Intn(256))
	}

	typ, err := GetType("ZRLT")
	require.NoError(t, err)
	roundtrip(t, typ, src)
}

func TestRoundtripPipeline(t *testing.T) {
	src := make([]byte, 8192)

	for i := range src {
		if i%3 == 0 {
			src[i] = 0
		} else {
			src[i] = byte(i % 5)
		}
	}

	typ, err := GetType("ZRLT+RLT")
	require.NoError(t, err)
	roundtrip(t, typ, src)
}

func TestRoundtripEmptyInput(t *testing.T) {
	ctx := map[string]interface{}{"blockSize": 0}
	seq, err := New(&ctx, RLT_TYPE<<uint(_MAX_SHIFT))
	require.NoError(t, err)

	dst := make([]byte, 16)
	n, fLen, err := seq.Forward(nil, dst)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
	require.EqualValues(t, 0, fLen)
}

func TestGetNameGetTypeRoundtrip(t *testing.T) {
	for _, name := range []string{"NONE", "RLT", "ZRLT", "RLT+ZRLT"} {
		typ, err := GetType(name)
		require.NoError(t, err)

		got, err := GetName(typ)
		require.NoError(t, err)
		require.Equal(t, name, got)
	}
}

func TestGetTypeRejectsUnknown(t *testing.T) {
	_, err := GetType("BWT")
	require.Error(t, err)
}

func TestGetTypeRejectsTooManyStages(t *testing.T) {
	_, err := GetType("RLT+ZRLT+RLT+ZRLT+RLT")
	require.Error(t, err)
}

func TestByteTransformSequenceRejectsEmpty(t *testing.T) {
	_, err := NewByteTransformSequence(nil)
	require.Error(t, err)

	_, err = NewByteTransformSequence([]kodec.ByteTransform{})
	require.Error(t, err)
}
