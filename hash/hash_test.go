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

package hash

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXXHash32Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 777)
	rng.Read(data)

	h, err := NewXXHash32(0)
	require.NoError(t, err)

	a := h.Hash(data)
	b := h.Hash(data)
	require.Equal(t, a, b)
}

func TestXXHash32SensitiveToTampering(t *testing.T) {
	data := make([]byte, 256)

	for i := range data {
		data[i] = byte(i)
	}

	h, err := NewXXHash32(0)
	require.NoError(t, err)
	orig := h.Hash(data)

	data[128] ^= 0xFF
	tampered := h.Hash(data)
	require.NotEqual(t, orig, tampered)
}

func TestXXHash32SeedChangesHash(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	h0, _ := NewXXHash32(0)
	h1, _ := NewXXHash32(0)
	h1.SetSeed(12345)

	require.NotEqual(t, h0.Hash(data), h1.Hash(data))
}

func TestXXHash32AllLengthClasses(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	h, err := NewXXHash32(0)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 3, 4, 7, 8, 15, 16, 17, 31, 32, 100, 1000} {
		data := make([]byte, n)
		rng.Read(data)
		require.NotPanics(t, func() { h.Hash(data) })
	}
}
