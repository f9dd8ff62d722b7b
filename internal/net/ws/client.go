// Package ws links a match to the relay over a websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/netsync"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
	"github.com/ShangTsung3/battle-city-pro/logging"
	netlog "github.com/ShangTsung3/battle-city-pro/logging/network"
)

const (
	transportName = "websocket"

	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	readLimit    = 1 << 20

	// CodecParam is the query parameter announcing the client codec to the
	// relay.
	CodecParam = "codec"

	// DefaultSendBuffer is the number of encoded frames queued for writing.
	DefaultSendBuffer = 256

	decodeFailedMetricKey = "ws_decode_failed_total"
	receivedMetricKey     = "ws_received_total"
)

// Receiver accepts decoded inbound messages. netsync.Inbox satisfies it.
type Receiver interface {
	Push(msg proto.Message) bool
}

// Config describes how to reach the relay.
type Config struct {
	URL        string
	Codec      proto.Codec
	SendBuffer int
	Dialer     *websocket.Dialer
	Publisher  logging.Publisher
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
}

// Client is a netsync.Transport backed by a websocket connection.
type Client struct {
	conn      *websocket.Conn
	codec     proto.Codec
	receiver  Receiver
	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	endpoint  string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ netsync.Transport = (*Client)(nil)

// Dial connects to cfg.URL and starts the read and write pumps. Inbound
// messages, including connectivity changes, are pushed into receiver.
func Dial(ctx context.Context, cfg Config, receiver Receiver) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ws: relay url is required")
	}
	codec := cfg.Codec
	if codec == nil {
		codec = proto.JSON
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}

	target, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse %s: %w", cfg.URL, err)
	}
	query := target.Query()
	query.Set(CodecParam, codec.Name())
	target.RawQuery = query.Encode()

	conn, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", cfg.URL, err)
	}

	c := &Client{
		conn:      conn,
		codec:     codec,
		receiver:  receiver,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		endpoint:  cfg.URL,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	netlog.Connected(ctx, c.publisher, 0, netlog.ConnectionPayload{Transport: transportName, Endpoint: c.endpoint}, nil)
	c.push(proto.Connectivity{State: proto.Connected})

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Send encodes msg and queues it without blocking.
func (c *Client) Send(msg proto.Message) error {
	if c == nil {
		return netsync.ErrClosed
	}
	data, err := proto.Encode(c.codec, msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return netsync.ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return netsync.ErrQueueFull
	}
}

// Close shuts the connection and waits for both pumps to exit.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.shutdown("closed")
	c.wg.Wait()
	return nil
}

func (c *Client) shutdown(reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		c.conn.Close()

		netlog.Disconnected(context.Background(), c.publisher, 0, netlog.ConnectionPayload{
			Transport: transportName,
			Endpoint:  c.endpoint,
			Reason:    reason,
		}, nil)
		c.push(proto.Connectivity{State: proto.Disconnected, Reason: reason})
	})
}

func (c *Client) readPump() {
	defer c.wg.Done()
	for {
		frameType, data, err := c.conn.ReadMessage()
		if err != nil {
			reason := "closed"
			select {
			case <-c.done:
			default:
				reason = err.Error()
			}
			c.shutdown(reason)
			return
		}

		codec := proto.JSON
		if frameType == websocket.BinaryMessage {
			codec = proto.Msgpack
		}
		msg, err := proto.Decode(codec, data)
		if err != nil {
			if c.metrics != nil {
				c.metrics.Add(decodeFailedMetricKey, 1)
			}
			netlog.DecodeFailed(context.Background(), c.publisher, 0, netlog.DropPayload{Reason: err.Error()}, nil)
			continue
		}
		if c.metrics != nil {
			c.metrics.Add(receivedMetricKey, 1)
		}
		c.push(msg)
	}
}

func (c *Client) writePump() {
	defer c.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				if c.logger != nil {
					c.logger.Printf("[ws] write to %s failed: %v", c.endpoint, err)
				}
				c.shutdown(err.Error())
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(err.Error())
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) push(msg proto.Message) {
	if c.receiver == nil {
		return
	}
	c.receiver.Push(msg)
}
