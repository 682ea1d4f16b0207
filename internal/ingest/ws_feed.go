package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/maxz000/zwift-watcher/internal/metrics"
)

// WSFeed consumes a live sample stream pushed by an upstream capture process
// over a long-lived WebSocket: one text frame per batch, each a JSON array
// of worldstate.PlayerSample. It is the networked alternative to
// FileReplay, used when the capture/decode process runs as a separate
// service rather than being linked into this binary. This adapts the
// teacher's server-side ws.Upgrade accept/read loop into a client-side
// ws.Dial read loop; packet capture and decoding remain entirely outside
// this process.
type WSFeed struct {
	conn    net.Conn
	reader  *wsutil.Reader
	metrics *metrics.Registry
}

// DialWSFeed connects to url and returns a feed ready to be pulled from Next.
func DialWSFeed(ctx context.Context, url string, dialTimeout time.Duration, metricsRegistry *metrics.Registry) (*WSFeed, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, br, _, err := ws.Dial(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dial sample feed: %w", err)
	}

	var source io.Reader = conn
	if br != nil && br.Buffered() > 0 {
		source = io.MultiReader(br, conn)
	}

	if metricsRegistry != nil {
		metricsRegistry.Ingest.FeedConnected.Set(1)
	}

	return &WSFeed{
		conn:    conn,
		reader:  wsutil.NewReader(source, ws.StateClientSide),
		metrics: metricsRegistry,
	}, nil
}

// Next blocks until the next batch frame arrives, the connection closes, or
// ctx is canceled.
func (f *WSFeed) Next(ctx context.Context) (Batch, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		header, err := f.reader.NextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("read feed frame: %w", err)
		}

		switch header.OpCode {
		case ws.OpClose:
			return nil, false, nil
		case ws.OpPing:
			if err := wsutil.WriteClientMessage(f.conn, ws.OpPong, nil); err != nil {
				return nil, false, fmt.Errorf("write pong: %w", err)
			}
		case ws.OpText, ws.OpBinary:
			payload := make([]byte, header.Length)
			if _, err := io.ReadFull(f.reader, payload); err != nil {
				return nil, false, fmt.Errorf("read feed payload: %w", err)
			}

			var batch Batch
			if err := json.Unmarshal(payload, &batch); err != nil {
				return nil, false, fmt.Errorf("decode feed batch: %w", err)
			}
			return batch, true, nil
		default:
			if _, err := io.CopyN(io.Discard, f.reader, int64(header.Length)); err != nil {
				return nil, false, fmt.Errorf("drain feed frame: %w", err)
			}
		}
	}
}

// Close closes the underlying connection.
func (f *WSFeed) Close() error {
	if f.metrics != nil {
		f.metrics.Ingest.FeedConnected.Set(0)
	}
	return f.conn.Close()
}
