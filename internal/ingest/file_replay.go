package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// FileReplay reads newline-delimited JSON batches from a file, pacing
// delivery so a consumer sees roughly the cadence of a live capture. This is
// the Go analogue of the original tool's pcapng file replay
// (ZwiftCapture::from_file), minus the packet decoding, which stays out of
// scope: each line here is already a decoded batch.
type FileReplay struct {
	file    *os.File
	scanner *bufio.Scanner
	pace    time.Duration
}

// NewFileReplay opens path for replay. pace is the delay applied before
// delivering each batch, simulating live capture cadence.
func NewFileReplay(path string, pace time.Duration) (*FileReplay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	return &FileReplay{
		file:    f,
		scanner: bufio.NewScanner(f),
		pace:    pace,
	}, nil
}

// Next decodes the next non-empty line as a batch of samples.
func (r *FileReplay) Next(ctx context.Context) (Batch, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var batch Batch
		if err := json.Unmarshal(line, &batch); err != nil {
			return nil, false, fmt.Errorf("decode replay batch: %w", err)
		}

		if r.pace > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(r.pace):
			}
		}

		return batch, true, nil
	}

	if err := r.scanner.Err(); err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("read replay file: %w", err)
	}
	return nil, false, nil
}

// Close releases the underlying file handle.
func (r *FileReplay) Close() error {
	return r.file.Close()
}
