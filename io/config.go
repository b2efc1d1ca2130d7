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

const (
	_MIN_BITSTREAM_BLOCK_SIZE = 1024
	_MAX_BITSTREAM_BLOCK_SIZE = 1024 * 1024 * 1024
	_MIN_JOBS                 = 1
	_MAX_JOBS                 = 16
)

// Config groups the parameters needed to open a compressed stream. The same
// Config, with Transform/Entropy left blank, opens a CompressedInputStream:
// the codec and transform in use are read back from the stream header.
type Config struct {
	// Entropy is the entropy codec name, resolved through
	// entropy.GetType/GetName (e.g. "NONE", "FLATE").
	Entropy string

	// Transform is the "+"-joined transform pipeline name, resolved
	// through transform.GetType/GetName (e.g. "NONE", "RLT+ZRLT").
	Transform string

	// BlockSize is the size, in bytes, of each block. Must be in
	// [_MIN_BITSTREAM_BLOCK_SIZE, _MAX_BITSTREAM_BLOCK_SIZE] and a
	// multiple of 16.
	BlockSize int

	// Jobs bounds the worker pool. Must be in [1, 16].
	Jobs int

	// Checksum enables a 32-bit XXH32 checksum per block.
	Checksum bool
}
