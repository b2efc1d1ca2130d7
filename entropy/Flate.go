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
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	kodec "github.com/blockcodec/kodec"
)

// FlateEncoder is an EntropyEncoder that runs the block through
// klauspost/compress/flate. The compressed bytes are self-delimited with a
// 32-bit length prefix so the decoder, which only knows the pre-entropy
// (postTransformLength) size from the block header, can pull back exactly
// the right span from the shared bitstream without over-reading into the
// next block.
type FlateEncoder struct {
	bitstream kodec.OutputBitStream
}

// NewFlateEncoder creates a new instance of FlateEncoder
func NewFlateEncoder(bs kodec.OutputBitStream) (*FlateEncoder, error) {
	return &FlateEncoder{bitstream: bs}, nil
}

// Write deflates block and writes it, length-prefixed, to the bitstream.
// Returns the number of bytes consumed from block.
func (this *FlateEncoder) Write(block []byte) (int, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)

	if err != nil {
		return 0, err
	}

	if _, err = w.Write(block); err != nil {
		return 0, err
	}

	if err = w.Close(); err != nil {
		return 0, err
	}

	compressed := buf.Bytes()
	this.bitstream.WriteBits(uint64(len(compressed)), 32)
	this.bitstream.WriteArray(compressed, uint(8*len(compressed)))
	return len(block), nil
}

// BitStream returns the underlying bitstream
func (this *FlateEncoder) BitStream() kodec.OutputBitStream {
	return this.bitstream
}

// Dispose this implementation does nothing
func (this *FlateEncoder) Dispose() {
}

// FlateDecoder is the EntropyDecoder counterpart of FlateEncoder.
type FlateDecoder struct {
	bitstream kodec.InputBitStream
}

// NewFlateDecoder creates a new instance of FlateDecoder
func NewFlateDecoder(bs kodec.InputBitStream) (*FlateDecoder, error) {
	return &FlateDecoder{bitstream: bs}, nil
}

// Read reads the length-prefixed deflated payload from the bitstream and
// inflates it into block. Returns the number of bytes produced.
func (this *FlateDecoder) Read(block []byte) (int, error) {
	compressedLen := this.bitstream.ReadBits(32)
	compressed := make([]byte, compressedLen)
	this.bitstream.ReadArray(compressed, uint(8*compressedLen))

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	n, err := io.ReadFull(r, block)

	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return n, err
	}

	return n, nil
}

// BitStream returns the underlying bitstream
func (this *FlateDecoder) BitStream() kodec.InputBitStream {
	return this.bitstream
}

// Dispose this implementation does nothing
func (this *FlateDecoder) Dispose() {
}
