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
	"fmt"
	"strings"

	kodec "github.com/blockcodec/kodec"
)

// A transform code is a 16-bit value packed as up to 4 stages of 4 bits
// each (_ONE_SHIFT), matching the stream header's transformType field and
// the mode byte's 4-bit skip mask (one bit per stage).
const (
	_ONE_SHIFT  = 4
	_MAX_STAGES = 4
	_MAX_SHIFT  = (_MAX_STAGES - 1) * _ONE_SHIFT
	_MASK       = (1 << _ONE_SHIFT) - 1

	NONE_TYPE = uint16(0) // Copy
	RLT_TYPE  = uint16(1) // Run Length
	ZRLT_TYPE = uint16(2) // Zero Run Length
)

// New builds a ByteTransformSequence of up to 4 stages from a packed
// transform code. Each 4-bit field, read most significant first, selects
// one stage; NONE_TYPE fields are omitted except when every field is
// NONE_TYPE, in which case a single pass-through stage is kept.
func New(ctx *map[string]interface{}, transformType uint16) (*ByteTransformSequence, error) {
	nb := 0

	for s := _MAX_SHIFT; s >= 0; s -= _ONE_SHIFT {
		if (transformType>>uint(s))&_MASK != NONE_TYPE {
			nb++
		}
	}

	if nb == 0 {
		nb = 1
	}

	stages := make([]kodec.ByteTransform, nb)
	nb = 0
	var err error

	for i := 0; i < _MAX_STAGES; i++ {
		t := uint16(transformType>>uint(_MAX_SHIFT-_ONE_SHIFT*i)) & _MASK

		if t != NONE_TYPE || transformType == 0 {
			if stages[nb], err = newStage(ctx, t); err != nil {
				return nil, err
			}

			nb++

			if nb == len(stages) {
				break
			}
		}
	}

	return NewByteTransformSequence(stages)
}

func newStage(ctx *map[string]interface{}, transformType uint16) (kodec.ByteTransform, error) {
	switch transformType {

	case ZRLT_TYPE:
		return NewZRLTWithCtx(ctx)

	case RLT_TYPE:
		return NewRLTWithCtx(ctx)

	case NONE_TYPE:
		return NewNullTransformWithCtx(ctx)

	default:
		return nil, fmt.Errorf("unknown transform type: '%d'", transformType)
	}
}

// GetName turns a packed transform code into its "+"-joined name, e.g.
// "RLT+ZRLT". A code with no active stage returns "NONE".
func GetName(transformType uint16) (string, error) {
	var s string

	for i := 0; i < _MAX_STAGES; i++ {
		t := uint16(transformType>>uint(_MAX_SHIFT-_ONE_SHIFT*i)) & _MASK

		if t == NONE_TYPE {
			continue
		}

		name, err := getNameToken(t)

		if err != nil {
			return "", err
		}

		if len(s) != 0 {
			s += "+"
		}

		s += name
	}

	if len(s) == 0 {
		return "NONE", nil
	}

	return s, nil
}

func getNameToken(transformType uint16) (string, error) {
	switch transformType {

	case ZRLT_TYPE:
		return "ZRLT", nil

	case RLT_TYPE:
		return "RLT", nil

	case NONE_TYPE:
		return "NONE", nil

	default:
		return "", fmt.Errorf("unknown transform type: '%d'", transformType)
	}
}

// GetType turns a "+"-joined transform name into its packed 16-bit code.
func GetType(name string) (uint16, error) {
	if strings.IndexByte(name, byte('+')) < 0 {
		t, err := getTypeToken(name)

		if err != nil {
			return 0, err
		}

		return t << uint(_MAX_SHIFT), nil
	}

	tokens := strings.Split(name, "+")

	if len(tokens) > _MAX_STAGES {
		return 0, fmt.Errorf("only %d transform stages allowed: '%s'", _MAX_STAGES, name)
	}

	var res uint16
	shift := _MAX_SHIFT

	for _, token := range tokens {
		t, err := getTypeToken(token)

		if err != nil {
			return 0, err
		}

		if t != NONE_TYPE {
			res |= t << uint(shift)
			shift -= _ONE_SHIFT
		}
	}

	return res, nil
}

func getTypeToken(name string) (uint16, error) {
	switch strings.ToUpper(name) {

	case "ZRLT":
		return ZRLT_TYPE, nil

	case "RLT":
		return RLT_TYPE, nil

	case "NONE":
		return NONE_TYPE, nil

	default:
		return 0, fmt.Errorf("unknown transform type: '%s'", name)
	}
}
