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

import (
	"io"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	kodec "github.com/blockcodec/kodec"
	"github.com/blockcodec/kodec/bitstream"
	"github.com/blockcodec/kodec/entropy"
	"github.com/blockcodec/kodec/hash"
	"github.com/blockcodec/kodec/transform"
)

// CompressedInputStream reads back a stream produced by
// CompressedOutputStream. The codec, transform and block size are read from
// the header; only Jobs is taken from the caller-supplied Config.
type CompressedInputStream struct {
	ibs           kodec.InputBitStream
	blockSize     int
	jobs          int
	checksum      bool
	entropyType   uint32
	transformType uint16
	ctx           map[string]interface{}

	blockID          int
	processedBlockID *atomic.Int32
	ended            bool

	pending   []byte
	pendingOff int

	listenersMutex sync.Mutex
	listeners      []kodec.Listener

	closed bool
}

// blockUnit carries one block's decode work between the barrier-protected
// read phase and the unguarded inverse-transform phase.
type blockUnit struct {
	blockID  int
	small    bool
	skipMask byte
	payload  []byte
	decoded  []byte
	checksum uint32
	isEnd    bool
	err      error
}

// NewCompressedInputStream creates a stream that reads from r. The header
// is read and validated immediately.
func NewCompressedInputStream(r io.ReadCloser, cfg Config) (*CompressedInputStream, error) {
	jobs := cfg.Jobs

	if jobs == 0 {
		jobs = 1
	}

	if jobs < _MIN_JOBS || jobs > _MAX_JOBS {
		return nil, kodec.NewError(kodec.InvalidArgument, "jobs must be in [%d, %d], got %d", _MIN_JOBS, _MAX_JOBS, jobs)
	}

	ibs, err := bitstream.NewBitReader(r, _STREAM_DEFAULT_BUFFER_SIZE)

	if err != nil {
		return nil, kodec.WrapError(err, kodec.InputOutput, "failed to create bit reader")
	}

	this := &CompressedInputStream{
		ibs:              ibs,
		jobs:             jobs,
		processedBlockID: atomic.NewInt32(0),
	}

	if err := this.readHeader(); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *CompressedInputStream) readHeader() error {
	magic := this.ibs.ReadBits(32)

	if uint32(magic) != _BITSTREAM_TYPE {
		return kodec.NewError(kodec.InvalidFormat, "invalid stream: bad magic number")
	}

	version := this.ibs.ReadBits(7)

	if version != _BITSTREAM_FORMAT_VERSION {
		return kodec.NewError(kodec.InvalidFormat, "unsupported bitstream version: %d", version)
	}

	this.checksum = this.ibs.ReadBits(1) == 1
	this.entropyType = uint32(this.ibs.ReadBits(5))
	this.transformType = uint16(this.ibs.ReadBits(16))
	blockSize16 := this.ibs.ReadBits(26)
	this.ibs.ReadBits(9) // reserved

	blockSize := int(blockSize16) * 16

	if blockSize < _MIN_BITSTREAM_BLOCK_SIZE || blockSize > _MAX_BITSTREAM_BLOCK_SIZE {
		return kodec.NewError(kodec.InvalidFormat, "invalid block size in header: %d", blockSize)
	}

	this.blockSize = blockSize
	this.ctx = map[string]interface{}{"blockSize": blockSize, "checksum": this.checksum}

	if _, err := entropy.GetName(this.entropyType); err != nil {
		return kodec.WrapError(err, kodec.InvalidFormat, "unknown entropy codec in header")
	}

	if _, err := transform.GetName(this.transformType); err != nil {
		return kodec.WrapError(err, kodec.InvalidFormat, "unknown transform in header")
	}

	return nil
}

// AddListener registers a listener for block-level events. Safe to call
// concurrently with Read: the listener receives events from the next batch
// of blocks on.
func (this *CompressedInputStream) AddListener(bl kodec.Listener) {
	this.listenersMutex.Lock()
	defer this.listenersMutex.Unlock()
	this.listeners = append(this.listeners, bl)
}

func (this *CompressedInputStream) snapshotListeners() []kodec.Listener {
	this.listenersMutex.Lock()
	defer this.listenersMutex.Unlock()

	if len(this.listeners) == 0 {
		return nil
	}

	cp := make([]kodec.Listener, len(this.listeners))
	copy(cp, this.listeners)
	return cp
}

// BlockSize returns the block size read from the stream header.
func (this *CompressedInputStream) BlockSize() int {
	return this.blockSize
}

// Read decodes blocks as needed to satisfy the request. Returns io.EOF once
// the end-of-stream marker has been read and all decoded bytes consumed.
func (this *CompressedInputStream) Read(p []byte) (int, error) {
	if this.closed {
		return 0, kodec.NewError(kodec.StreamClosed, "stream closed")
	}

	total := 0

	for total < len(p) {
		if this.pendingOff >= len(this.pending) {
			this.pending = this.pending[:0]
			this.pendingOff = 0

			if this.ended {
				break
			}

			if err := this.decodeBatch(); err != nil {
				return total, err
			}

			if len(this.pending) == 0 && this.ended {
				break
			}

			continue
		}

		n := copy(p[total:], this.pending[this.pendingOff:])
		this.pendingOff += n
		total += n
	}

	if total == 0 && this.ended {
		return 0, io.EOF
	}

	return total, nil
}

// Close releases the underlying bitstream. Close is idempotent.
func (this *CompressedInputStream) Close() error {
	if this.closed {
		return nil
	}

	this.closed = true
	return this.ibs.Close()
}

func (this *CompressedInputStream) decodeBatch() error {
	if this.ended {
		return nil
	}

	firstBlockID := this.blockID
	this.processedBlockID.Store(int32(firstBlockID))
	listeners := this.snapshotListeners()
	units := make([]*blockUnit, this.jobs)

	if this.jobs == 1 {
		units[0] = this.decodeBlock(firstBlockID+1, listeners)
	} else {
		var wg sync.WaitGroup

		for i := 0; i < this.jobs; i++ {
			wg.Add(1)

			go func(idx int) {
				defer wg.Done()
				units[idx] = this.decodeBlock(firstBlockID+idx+1, listeners)
			}(i)
		}

		wg.Wait()
	}

	var result error
	consumed := 0

	for _, u := range units {
		if u == nil || u.isEnd {
			this.ended = true
			break
		}

		consumed++

		if u.err != nil {
			result = multierr.Append(result, u.err)
			continue
		}

		this.pending = append(this.pending, u.decoded...)
	}

	this.blockID += consumed

	if result != nil {
		return kodec.WrapError(result, kodec.ProcessBlock, "block decoding failed")
	}

	return nil
}

// decodeBlock waits its turn on the ordering barrier, reads the block's
// header and entropy-coded payload off the shared bitstream, releases the
// barrier for the next block and then runs the inverse transform and
// checksum check unguarded, so that work can overlap with the next block's
// barrier-protected read.
func (this *CompressedInputStream) decodeBlock(blockID int, listeners []kodec.Listener) (bu *blockUnit) {
	bu = &blockUnit{blockID: blockID}

	defer func() {
		if r := recover(); r != nil {
			bu.err = kodec.NewError(kodec.ProcessBlock, "block %d: %v", blockID, r)
		}
	}()

	func() {
		this.spinUntil(blockID - 1)
		defer this.releaseBarrier(blockID)

		defer func() {
			if r := recover(); r != nil {
				bu.err = kodec.NewError(kodec.ProcessBlock, "block %d: %v", blockID, r)
				this.ended = true
			}
		}()

		if this.ended {
			bu.isEnd = true
			return
		}

		mode := byte(this.ibs.ReadBits(8))

		if mode&_SMALL_BLOCK_MASK != 0 {
			length := mode & _COPY_LENGTH_MASK

			if length == 0 {
				this.ended = true
				bu.isEnd = true
				return
			}

			bu.small = true
			buf := make([]byte, length)

			if this.checksum {
				bu.checksum = uint32(this.ibs.ReadBits(32))
			}

			this.ibs.ReadArray(buf, uint(8*length))
			bu.payload = buf
			return
		}

		skipMask := (mode >> 2) & 0x0F
		dataSize := int(mode&0x03) + 1
		tLen := this.ibs.ReadBits(uint(8 * dataSize))

		if this.checksum {
			bu.checksum = uint32(this.ibs.ReadBits(32))
		}

		notify(listeners, kodec.EVT_BEFORE_ENTROPY, blockID, int64(tLen))
		buf := make([]byte, tLen)
		dec, err := entropy.NewEntropyDecoder(this.ibs, this.ctx, this.entropyType)

		if err != nil {
			bu.err = kodec.WrapError(err, kodec.ProcessBlock, "failed to build entropy decoder")
			this.ended = true
			return
		}

		_, err = dec.Read(buf)
		dec.Dispose()
		notify(listeners, kodec.EVT_AFTER_ENTROPY, blockID, int64(tLen))

		if err != nil {
			bu.err = kodec.WrapError(err, kodec.ProcessBlock, "entropy decoding failed")
			this.ended = true
			return
		}

		bu.skipMask = skipMask
		bu.payload = buf
	}()

	if bu.isEnd || bu.err != nil {
		return bu
	}

	notify(listeners, kodec.EVT_BEFORE_TRANSFORM, blockID, int64(len(bu.payload)))

	if bu.small {
		bu.decoded = bu.payload
	} else {
		seq, err := transform.New(&this.ctx, this.transformType)

		if err != nil {
			bu.err = kodec.WrapError(err, kodec.ProcessBlock, "failed to build transform")
			return bu
		}

		seq.SetSkipFlags(bu.skipMask)
		dst := make([]byte, this.blockSize)
		_, n, err := seq.Inverse(bu.payload, dst)

		if err != nil {
			bu.err = kodec.WrapError(err, kodec.ProcessBlock, "inverse transform failed")
			return bu
		}

		bu.decoded = dst[:n]
	}

	notify(listeners, kodec.EVT_AFTER_TRANSFORM, blockID, int64(len(bu.decoded)))

	if this.checksum {
		h, _ := hash.NewXXHash32(0)

		if h.Hash(bu.decoded) != bu.checksum {
			bu.err = kodec.NewError(kodec.InvalidFormat, "checksum mismatch in block %d", blockID)
		}
	}

	return bu
}

func (this *CompressedInputStream) spinUntil(target int) {
	for this.processedBlockID.Load() != int32(target) {
		doGosched()
	}
}

func (this *CompressedInputStream) releaseBarrier(blockID int) {
	this.processedBlockID.Store(int32(blockID))
}
