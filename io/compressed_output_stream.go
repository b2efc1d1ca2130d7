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

// Package io implements the compressed stream container: the header, the
// per-block framing and the worker pool that fan blocks out to the
// transform/entropy stages while keeping a single ordered bitstream.
package io

import (
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	kodec "github.com/blockcodec/kodec"
	"github.com/blockcodec/kodec/bitstream"
	"github.com/blockcodec/kodec/entropy"
	"github.com/blockcodec/kodec/hash"
	"github.com/blockcodec/kodec/internal"
	"github.com/blockcodec/kodec/transform"
)

const (
	_BITSTREAM_TYPE            = uint32(0x4B4F4445) // "KODE"
	_BITSTREAM_FORMAT_VERSION  = uint64(1)
	_STREAM_DEFAULT_BUFFER_SIZE = 1024 * 1024

	// _SMALL_BLOCK_MASK marks a block stored uncoded, its 4 low bits
	// giving the raw length (1..15). A zero length under this mask is
	// the end-of-stream marker.
	_SMALL_BLOCK_MASK  = byte(0x80)
	_COPY_LENGTH_MASK  = byte(0x0F)
	_SMALL_BLOCK_SIZE  = 15
)

// CompressedOutputStream writes a sequence of blocks, each independently
// transformed and entropy coded, into one ordered bitstream. Blocks are
// accumulated across Write calls into a jobs*blockSize staging buffer and
// processed in batches of up to jobs blocks.
type CompressedOutputStream struct {
	obs           kodec.OutputBitStream
	blockSize     int
	jobs          int
	checksum      bool
	entropyType   uint32
	transformType uint16
	ctx           map[string]interface{}

	buffer    []byte
	bufferOff int

	blockID          int
	processedBlockID *atomic.Int32

	listenersMutex sync.Mutex
	listeners      []kodec.Listener

	closed bool
}

// NewCompressedOutputStream creates a stream that writes to w using the
// parameters in cfg. The header is written immediately.
func NewCompressedOutputStream(w io.WriteCloser, cfg Config) (*CompressedOutputStream, error) {
	blockSize := cfg.BlockSize

	if blockSize == 0 {
		blockSize = 4 * 1024 * 1024
	}

	if blockSize < _MIN_BITSTREAM_BLOCK_SIZE || blockSize > _MAX_BITSTREAM_BLOCK_SIZE {
		return nil, kodec.NewError(kodec.InvalidArgument, "block size must be in [%d, %d], got %d",
			_MIN_BITSTREAM_BLOCK_SIZE, _MAX_BITSTREAM_BLOCK_SIZE, blockSize)
	}

	if blockSize%16 != 0 {
		return nil, kodec.NewError(kodec.InvalidArgument, "block size must be a multiple of 16, got %d", blockSize)
	}

	jobs := cfg.Jobs

	if jobs == 0 {
		jobs = 1
	}

	if jobs < _MIN_JOBS || jobs > _MAX_JOBS {
		return nil, kodec.NewError(kodec.InvalidArgument, "jobs must be in [%d, %d], got %d", _MIN_JOBS, _MAX_JOBS, jobs)
	}

	entropyName := cfg.Entropy

	if len(entropyName) == 0 {
		entropyName = "NONE"
	}

	entropyType, err := entropy.GetType(entropyName)

	if err != nil {
		return nil, kodec.WrapError(err, kodec.InvalidArgument, "invalid entropy codec")
	}

	transformName := cfg.Transform

	if len(transformName) == 0 {
		transformName = "NONE"
	}

	transformType, err := transform.GetType(transformName)

	if err != nil {
		return nil, kodec.WrapError(err, kodec.InvalidArgument, "invalid transform")
	}

	obs, err := bitstream.NewBitWriter(w, _STREAM_DEFAULT_BUFFER_SIZE)

	if err != nil {
		return nil, kodec.WrapError(err, kodec.WriteHeader, "failed to create bit writer")
	}

	this := &CompressedOutputStream{
		obs:              obs,
		blockSize:        blockSize,
		jobs:             jobs,
		checksum:         cfg.Checksum,
		entropyType:      entropyType,
		transformType:    transformType,
		ctx:              map[string]interface{}{"blockSize": blockSize, "checksum": cfg.Checksum},
		buffer:           make([]byte, blockSize*jobs),
		processedBlockID: atomic.NewInt32(0),
	}

	if err := this.writeHeader(); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *CompressedOutputStream) writeHeader() error {
	checksumBit := uint64(0)

	if this.checksum {
		checksumBit = 1
	}

	this.obs.WriteBits(uint64(_BITSTREAM_TYPE), 32)
	this.obs.WriteBits(_BITSTREAM_FORMAT_VERSION, 7)
	this.obs.WriteBits(checksumBit, 1)
	this.obs.WriteBits(uint64(this.entropyType), 5)
	this.obs.WriteBits(uint64(this.transformType), 16)
	this.obs.WriteBits(uint64(this.blockSize/16), 26)
	this.obs.WriteBits(0, 9)
	return nil
}

// AddListener registers a listener for block-level events. Safe to call
// concurrently with Write/Close: the listener receives events from the next
// batch of blocks on.
func (this *CompressedOutputStream) AddListener(bl kodec.Listener) {
	this.listenersMutex.Lock()
	defer this.listenersMutex.Unlock()
	this.listeners = append(this.listeners, bl)
}

func (this *CompressedOutputStream) snapshotListeners() []kodec.Listener {
	this.listenersMutex.Lock()
	defer this.listenersMutex.Unlock()

	if len(this.listeners) == 0 {
		return nil
	}

	cp := make([]kodec.Listener, len(this.listeners))
	copy(cp, this.listeners)
	return cp
}

func notify(listeners []kodec.Listener, evtType, id int, size int64) {
	if len(listeners) == 0 {
		return
	}

	evt := kodec.NewEvent(evtType, id, size, time.Time{})

	for _, l := range listeners {
		notifyOne(l, evt)
	}
}

func notifyOne(l kodec.Listener, evt *kodec.Event) {
	defer func() { recover() }()
	l.ProcessEvent(evt)
}

// Write buffers data for compression. Blocks are dispatched to the worker
// pool once the staging buffer holds jobs full blocks.
func (this *CompressedOutputStream) Write(data []byte) (int, error) {
	if this.closed {
		return 0, kodec.NewError(kodec.StreamClosed, "stream closed")
	}

	total := 0

	for len(data) > 0 {
		n := copy(this.buffer[this.bufferOff:], data)
		this.bufferOff += n
		data = data[n:]
		total += n

		if this.bufferOff == len(this.buffer) {
			if err := this.processBuffer(); err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

// Close flushes any buffered data, writes the end-of-stream marker and
// closes the underlying bitstream. Close is idempotent.
func (this *CompressedOutputStream) Close() error {
	if this.closed {
		return nil
	}

	this.closed = true

	if err := this.processBuffer(); err != nil {
		_ = this.obs.Close()
		return err
	}

	this.obs.WriteBits(uint64(_SMALL_BLOCK_MASK), 8)
	return this.obs.Close()
}

func (this *CompressedOutputStream) processBuffer() error {
	n := this.bufferOff

	if n == 0 {
		return nil
	}

	nbChunks := (n + this.blockSize - 1) / this.blockSize
	firstBlockID := this.blockID
	this.processedBlockID.Store(int32(firstBlockID))
	listeners := this.snapshotListeners()

	chunks := make([][]byte, nbChunks)

	for i := 0; i < nbChunks; i++ {
		start := i * this.blockSize
		end := start + this.blockSize

		if end > n {
			end = n
		}

		chunks[i] = this.buffer[start:end]
	}

	var result error

	if this.jobs == 1 {
		for i, c := range chunks {
			if err := this.encodeBlock(firstBlockID+i+1, c, listeners); err != nil {
				result = multierr.Append(result, err)
			}
		}
	} else {
		var wg sync.WaitGroup
		errs := make([]error, nbChunks)

		for i, c := range chunks {
			wg.Add(1)

			go func(idx int, blk []byte) {
				defer wg.Done()
				errs[idx] = this.encodeBlock(firstBlockID+idx+1, blk, listeners)
			}(i, c)
		}

		wg.Wait()

		for _, e := range errs {
			result = multierr.Append(result, e)
		}
	}

	this.blockID += nbChunks
	this.bufferOff = 0

	if result != nil {
		return kodec.WrapError(result, kodec.ProcessBlock, "block encoding failed")
	}

	return nil
}

// spinUntil busy-waits until processedBlockID reaches target, yielding the
// processor between polls. Ordering across blocks is the only invariant the
// wait strategy must preserve; an implementation could park/unpark instead,
// but the busy spin mirrors the teacher's lock-free approach and keeps
// latency low for the common case of a short wait.
func (this *CompressedOutputStream) spinUntil(target int) {
	for this.processedBlockID.Load() != int32(target) {
		doGosched()
	}
}

func (this *CompressedOutputStream) releaseBarrier(blockID int) {
	this.processedBlockID.Store(int32(blockID))
}

// encodeBlock runs one block through the transform and entropy stages. The
// bitstream panics on I/O failure (see kodec.OutputBitStream); recover
// converts that into a returned error so a single bad block fails the
// stream instead of crashing the process.
//
// The transform is prepared (and may fail) before the ordering barrier is
// entered, so a slow or failing block does not hold up its successors'
// unrelated transform work. But the barrier itself — spinUntil plus the
// deferred releaseBarrier — is entered unconditionally, whether or not
// preparation succeeded: a task that returned early on a prep failure
// would never advance processedBlockID, and every successor spinning on
// spinUntil(blockID) would wait forever. See EncodingTask's Increment step
// (spec-level, unconditional on success or failure) and the decoder's
// decodeBlock, which follows the same shape.
func (this *CompressedOutputStream) encodeBlock(blockID int, data []byte, listeners []kodec.Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = kodec.NewError(kodec.ProcessBlock, "block %d: %v", blockID, r)
		}
	}()

	notify(listeners, kodec.EVT_BEFORE_TRANSFORM, blockID, int64(len(data)))

	var checksumValue uint32

	if this.checksum {
		h, _ := hash.NewXXHash32(0)
		checksumValue = h.Hash(data)
	}

	small := len(data) <= _SMALL_BLOCK_SIZE

	var seq *transform.ByteTransformSequence
	var payload []byte
	var mode byte
	var dataSize int
	var prepErr error

	if small {
		notify(listeners, kodec.EVT_AFTER_TRANSFORM, blockID, int64(len(data)))
		payload = data
		mode = _SMALL_BLOCK_MASK | byte(len(data))
	} else if seq, prepErr = transform.New(&this.ctx, this.transformType); prepErr != nil {
		prepErr = kodec.WrapError(prepErr, kodec.ProcessBlock, "failed to build transform")
	} else {
		transformed := make([]byte, seq.MaxEncodedLen(len(data)))
		var tLen uint
		_, tLen, prepErr = seq.Forward(data, transformed)

		if prepErr != nil {
			prepErr = kodec.WrapError(prepErr, kodec.ProcessBlock, "transform forward failed")
		} else {
			payload = transformed[:tLen]
			notify(listeners, kodec.EVT_AFTER_TRANSFORM, blockID, int64(tLen))
			dataSize = computeDataSize(tLen)

			if dataSize > 4 {
				prepErr = kodec.NewError(kodec.ProcessBlock, "post-transform length %d does not fit in the block header", tLen)
			} else {
				mode = byte(seq.SkipFlags()<<2) | byte(dataSize-1)
			}
		}
	}

	this.spinUntil(blockID - 1)
	defer this.releaseBarrier(blockID)

	if prepErr != nil {
		return prepErr
	}

	if small {
		this.obs.WriteBits(uint64(mode), 8)

		if this.checksum {
			this.obs.WriteBits(uint64(checksumValue), 32)
		}

		this.obs.WriteArray(payload, uint(8*len(payload)))
		return nil
	}

	this.obs.WriteBits(uint64(mode), 8)
	this.obs.WriteBits(uint64(len(payload)), uint(8*dataSize))

	if this.checksum {
		this.obs.WriteBits(uint64(checksumValue), 32)
	}

	notify(listeners, kodec.EVT_BEFORE_ENTROPY, blockID, int64(len(payload)))

	enc, encErr := entropy.NewEntropyEncoder(this.obs, this.ctx, this.entropyType)

	if encErr != nil {
		return kodec.WrapError(encErr, kodec.ProcessBlock, "failed to build entropy encoder")
	}

	_, encErr = enc.Write(payload)
	enc.Dispose()
	notify(listeners, kodec.EVT_AFTER_ENTROPY, blockID, int64(len(payload)))

	if encErr != nil {
		return kodec.WrapError(encErr, kodec.ProcessBlock, "entropy encoding failed")
	}

	return nil
}

// computeDataSize returns the minimum number of bytes (1..4) needed to hold
// length in the block header's postTransformLength field.
func computeDataSize(length uint) int {
	if length < 256 {
		return 1
	}

	return int(internal.Log2NoCheck(uint32(length))>>3) + 1
}
