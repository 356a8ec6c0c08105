// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
)

// exampleStream is one lazy stage of the dataset pipeline. Next returns
// io.EOF when the stream is exhausted; infinite stages never do.
type exampleStream interface {
	Next() (example, error)
	Close() error
}

// recordReader streams decoded examples from a list of shard files in
// order, reading fixed-length records with no per-record framing.
type recordReader struct {
	files   []string
	cfg     Config
	fileIdx int
	file    *os.File
	reader  *bufio.Reader
	buf     []byte
}

func newRecordReader(files []string, cfg Config) *recordReader {
	return &recordReader{
		files: files,
		cfg:   cfg,
		buf:   make([]byte, cfg.RecordSize()),
	}
}

// Next reads the next record, moving to the following shard file when the
// current one is exhausted.
func (r *recordReader) Next() (example, error) {
	for {
		if r.reader == nil {
			if r.fileIdx >= len(r.files) {
				return example{}, io.EOF
			}
			file, err := os.Open(r.files[r.fileIdx])
			if err != nil {
				return example{}, fmt.Errorf("cifar10: open shard: %w", err)
			}
			r.file = file
			r.reader = bufio.NewReaderSize(file, 64*1024)
			r.fileIdx++
		}

		_, err := io.ReadFull(r.reader, r.buf)
		if err == nil {
			return parseRecord(r.buf, r.cfg)
		}
		if errors.Is(err, io.EOF) {
			// Shard exhausted, advance to the next file.
			if cerr := r.closeCurrent(); cerr != nil {
				return example{}, cerr
			}
			continue
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return example{}, fmt.Errorf("cifar10: truncated record in %s", r.files[r.fileIdx-1])
		}
		return example{}, fmt.Errorf("cifar10: read shard: %w", err)
	}
}

func (r *recordReader) closeCurrent() error {
	r.reader = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *recordReader) Close() error {
	return r.closeCurrent()
}

// repeatStream cycles its source forever by recreating it from a factory
// whenever it reports io.EOF. Used for the infinite TRAIN stream; the
// caller bounds training by step count, not by epochs.
type repeatStream struct {
	factory func() (exampleStream, error)
	current exampleStream
}

func newRepeatStream(factory func() (exampleStream, error)) *repeatStream {
	return &repeatStream{factory: factory}
}

func (r *repeatStream) Next() (example, error) {
	for {
		if r.current == nil {
			stream, err := r.factory()
			if err != nil {
				return example{}, err
			}
			r.current = stream
		}

		ex, err := r.current.Next()
		if err == nil {
			return ex, nil
		}
		if errors.Is(err, io.EOF) {
			if cerr := r.current.Close(); cerr != nil {
				return example{}, cerr
			}
			r.current = nil
			continue
		}
		return example{}, err
	}
}

func (r *repeatStream) Close() error {
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}

// mapStream applies f to every example of its source.
type mapStream struct {
	source exampleStream
	f      func(example) example
}

func newMapStream(source exampleStream, f func(example) example) *mapStream {
	return &mapStream{source: source, f: f}
}

func (m *mapStream) Next() (example, error) {
	ex, err := m.source.Next()
	if err != nil {
		return example{}, err
	}
	return m.f(ex), nil
}

func (m *mapStream) Close() error {
	return m.source.Close()
}

// shuffleStream keeps a reservoir of buffered examples and emits a
// uniformly random one each call, replacing it from the source. The
// buffer approximates a full-dataset shuffle at a fraction of the memory.
type shuffleStream struct {
	source  exampleStream
	buffer  []example
	size    int
	rng     *rand.Rand
	drained bool
}

func newShuffleStream(source exampleStream, size int, rng *rand.Rand) *shuffleStream {
	return &shuffleStream{
		source: source,
		buffer: make([]example, 0, size),
		size:   size,
		rng:    rng,
	}
}

func (s *shuffleStream) Next() (example, error) {
	// Fill the reservoir before emitting anything.
	for !s.drained && len(s.buffer) < s.size {
		ex, err := s.source.Next()
		if errors.Is(err, io.EOF) {
			s.drained = true
			break
		}
		if err != nil {
			return example{}, err
		}
		s.buffer = append(s.buffer, ex)
	}

	if len(s.buffer) == 0 {
		return example{}, io.EOF
	}

	idx := s.rng.Intn(len(s.buffer))
	out := s.buffer[idx]

	if s.drained {
		// Source exhausted: shrink the buffer.
		last := len(s.buffer) - 1
		s.buffer[idx] = s.buffer[last]
		s.buffer = s.buffer[:last]
		return out, nil
	}

	ex, err := s.source.Next()
	if errors.Is(err, io.EOF) {
		s.drained = true
		last := len(s.buffer) - 1
		s.buffer[idx] = s.buffer[last]
		s.buffer = s.buffer[:last]
		return out, nil
	}
	if err != nil {
		return example{}, err
	}
	s.buffer[idx] = ex
	return out, nil
}

func (s *shuffleStream) Close() error {
	s.buffer = nil
	return s.source.Close()
}

// prefetchStream decodes ahead of the consumer on a separate goroutine,
// buffering up to depth examples in a channel.
type prefetchStream struct {
	source exampleStream
	items  chan prefetchItem
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

type prefetchItem struct {
	ex  example
	err error
}

func newPrefetchStream(source exampleStream, depth int) *prefetchStream {
	p := &prefetchStream{
		source: source,
		items:  make(chan prefetchItem, depth),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.fill()
	return p
}

func (p *prefetchStream) fill() {
	defer p.wg.Done()
	defer close(p.items)

	for {
		ex, err := p.source.Next()
		select {
		case p.items <- prefetchItem{ex: ex, err: err}:
			if err != nil {
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *prefetchStream) Next() (example, error) {
	item, ok := <-p.items
	if !ok {
		return example{}, io.EOF
	}
	return item.ex, item.err
}

func (p *prefetchStream) Close() error {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
	return p.source.Close()
}
