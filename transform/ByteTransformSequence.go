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
	"errors"
	"fmt"

	kodec "github.com/blockcodec/kodec"
)

// _SKIP_MASK covers the 4 stage-skip bits that fit in the block mode byte.
const _SKIP_MASK = 0x0F

// ByteTransformSequence chains up to 4 ByteTransform stages into a single
// ByteTransform. Each stage that fails or is not applicable to the block is
// skipped; the set of skipped stages is recorded in SkipFlags so the
// decoder can replay the same subset on Inverse.
type ByteTransformSequence struct {
	transforms []kodec.ByteTransform
	skipFlags  byte
}

// NewByteTransformSequence creates a ByteTransformSequence wrapping the
// given stages (1 to 4 of them).
func NewByteTransformSequence(transforms []kodec.ByteTransform) (*ByteTransformSequence, error) {
	if transforms == nil {
		return nil, errors.New("invalid nil transforms parameter")
	}

	if len(transforms) == 0 || len(transforms) > 4 {
		return nil, errors.New("only 1 to 4 transform stages allowed")
	}

	return &ByteTransformSequence{transforms: transforms}, nil
}

// Forward applies each stage in order. A stage whose Forward call errors is
// skipped (its input is carried through unchanged) rather than aborting the
// whole sequence.
func (this *ByteTransformSequence) Forward(src, dst []byte) (uint, uint, error) {
	this.skipFlags = _SKIP_MASK

	if len(src) == 0 {
		return 0, 0, nil
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("input and output buffers cannot be equal")
	}

	requiredSize := this.MaxEncodedLen(len(src))

	if len(dst) < requiredSize {
		return 0, 0, fmt.Errorf("output buffer too small - size: %d, required %d", len(dst), requiredSize)
	}

	blockSize := uint(len(src))
	length := blockSize
	in, out := src, dst
	var err error
	swaps := 0

	for i, t := range this.transforms {
		savedLength := length

		if len(out) < requiredSize || &out[0] == &src[0] {
			out = make([]byte, requiredSize)
		}

		if _, length, err = t.Forward(in[0:length], out); err != nil {
			length = savedLength
			continue
		}

		this.skipFlags &= ^(1 << uint(this.Len()-1-i))
		in, out = out, in
		swaps++

		if i == this.Len()-1 {
			break
		}
	}

	if swaps&1 == 0 {
		copy(dst, in[0:length])
	}

	return blockSize, length, nil
}

// Inverse replays Inverse on each non-skipped stage in reverse order.
func (this *ByteTransformSequence) Inverse(src, dst []byte) (uint, uint, error) {
	if len(src) == 0 {
		return 0, 0, nil
	}

	if &src[0] == &dst[0] {
		return 0, 0, errors.New("input and output buffers cannot be equal")
	}

	blockSize := uint(len(src))

	if this.skipFlags&_SKIP_MASK == _SKIP_MASK {
		copy(dst, src)
		return blockSize, blockSize, nil
	}

	length := blockSize
	in, out := src, dst
	var err error
	swaps := 0

	for i := this.Len() - 1; i >= 0; i-- {
		if this.skipFlags&(1<<uint(this.Len()-1-i)) != 0 {
			continue
		}

		if len(out) < len(dst) {
			out = make([]byte, len(dst))
		}

		if _, length, err = this.transforms[i].Inverse(in[0:length], out); err != nil {
			break
		}

		in, out = out, in
		swaps++
	}

	if err == nil && swaps&1 == 0 {
		copy(dst, in[0:length])
	}

	return blockSize, length, err
}

// MaxEncodedLen returns the max size required for the forward output buffer
func (this ByteTransformSequence) MaxEncodedLen(srcLen int) int {
	requiredSize := srcLen

	for _, t := range this.transforms {
		if reqSize := t.MaxEncodedLen(requiredSize); reqSize > requiredSize {
			requiredSize = reqSize
		}
	}

	return requiredSize
}

// Len returns the number of stages in the sequence (in [1..4])
func (this *ByteTransformSequence) Len() int {
	return len(this.transforms)
}

// SkipFlags returns the 4-bit mask of stages skipped during Forward, one
// bit per stage (bit set means skipped).
func (this *ByteTransformSequence) SkipFlags() byte {
	return this.skipFlags
}

// SetSkipFlags sets the skip mask, used by the decoder before calling
// Inverse so the same subset of stages is replayed.
func (this *ByteTransformSequence) SetSkipFlags(flags byte) bool {
	this.skipFlags = flags
	return true
}
