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
	"fmt"
	"strings"

	kodec "github.com/blockcodec/kodec"
)

// Entropy codec type, carried in the stream header's 5-bit entropyType
// field.
const (
	NONE_TYPE  = uint32(0) // No entropy coding, raw copy
	FLATE_TYPE = uint32(1) // DEFLATE, via klauspost/compress/flate
)

// NewEntropyDecoder creates a new entropy decoder using the provided type
// and bitstream. A fresh decoder is built for every block.
func NewEntropyDecoder(ibs kodec.InputBitStream, ctx map[string]any,
	entropyType uint32) (kodec.EntropyDecoder, error) {
	switch entropyType {

	case FLATE_TYPE:
		return NewFlateDecoder(ibs)

	case NONE_TYPE:
		return NewNullEntropyDecoder(ibs)

	default:
		return nil, fmt.Errorf("unsupported entropy codec type: '%d'", entropyType)
	}
}

// NewEntropyEncoder creates a new entropy encoder using the provided type
// and bitstream. A fresh encoder is built for every block.
func NewEntropyEncoder(obs kodec.OutputBitStream, ctx map[string]any,
	entropyType uint32) (kodec.EntropyEncoder, error) {
	switch entropyType {

	case FLATE_TYPE:
		return NewFlateEncoder(obs)

	case NONE_TYPE:
		return NewNullEntropyEncoder(obs)

	default:
		return nil, fmt.Errorf("unsupported entropy codec type: '%d'", entropyType)
	}
}

// GetName returns the name of the entropy codec given its type
func GetName(entropyType uint32) (string, error) {
	switch entropyType {

	case FLATE_TYPE:
		return "FLATE", nil

	case NONE_TYPE:
		return "NONE", nil

	default:
		return "", fmt.Errorf("unsupported entropy codec type: '%d'", entropyType)
	}
}

// GetType returns the type of the entropy codec given its name
func GetType(entropyName string) (uint32, error) {
	switch strings.ToUpper(entropyName) {

	case "FLATE":
		return FLATE_TYPE, nil

	case "NONE":
		return NONE_TYPE, nil

	default:
		return 0, fmt.Errorf("unsupported entropy codec type: '%v'", entropyName)
	}
}
