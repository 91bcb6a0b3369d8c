// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"context"
	"github.com/gorilla/websocket"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
	"net/http"
	"sync"
	"time"
)

const (
	FEED_WRITE_TIMEOUT = 10 * time.Second
	FEED_PING_INTERVAL = 30 * time.Second
	FEED_PONG_TIMEOUT  = 60 * time.Second
	FEED_CLIENT_BUFFER = 8
)

type feedMetrics struct {
	clients *metric.Gauge
	dropped *metric.Gauge
}

type feedClient struct {
	conn *websocket.Conn
	send chan *registry.Snapshot
}

// snapshotFeed pushes every new session snapshot to the connected websocket clients.
// A client that is slow to read skips snapshots and only ever sees the latest ones.
type snapshotFeed struct {
	govnr.TreeSupervisor
	session  Session
	logger   log.Logger
	upgrader websocket.Upgrader
	metrics  *feedMetrics

	mu struct {
		sync.Mutex
		clients map[*feedClient]struct{}
		closed  bool
	}
}

func newSnapshotFeed(ctx context.Context, session Session, logger log.Logger, metricFactory metric.Factory) *snapshotFeed {
	f := &snapshotFeed{
		session: session,
		logger:  logger.WithTags(log.String("feed", "snapshots")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: &feedMetrics{
			clients: metricFactory.NewGauge("Http.Websocket.Clients.Count"),
			dropped: metricFactory.NewGauge("Http.Websocket.DroppedSnapshots.Count"),
		},
	}
	f.mu.clients = make(map[*feedClient]struct{})

	updates, unsubscribe := session.Subscribe(FEED_CLIENT_BUFFER)
	f.Supervise(govnr.Forever(ctx, "websocket snapshot feed", logfields.GovnrErrorer(f.logger), func() {
		for {
			select {
			case snapshot, ok := <-updates:
				if !ok {
					<-ctx.Done()
					return
				}
				f.broadcast(snapshot)
			case <-ctx.Done():
				unsubscribe()
				f.close()
				return
			}
		}
	}))

	return f
}

func (f *snapshotFeed) broadcast(snapshot *registry.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for client := range f.mu.clients {
		select {
		case client.send <- snapshot:
		default:
			f.metrics.dropped.Inc()
		}
	}
}

func (f *snapshotFeed) add(client *feedClient) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mu.closed {
		return false
	}
	f.mu.clients[client] = struct{}{}
	f.metrics.clients.Inc()
	return true
}

func (f *snapshotFeed) remove(client *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, found := f.mu.clients[client]; found {
		delete(f.mu.clients, client)
		close(client.send)
		f.metrics.clients.Dec()
	}
}

// close tells every client the feed is going away, new connections are refused afterwards
func (f *snapshotFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mu.closed = true
	for client := range f.mu.clients {
		delete(f.mu.clients, client)
		close(client.send)
		f.metrics.clients.Dec()
	}
}

func (f *snapshotFeed) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Info("websocket upgrade failed", log.Error(err))
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan *registry.Snapshot, FEED_CLIENT_BUFFER),
	}
	client.send <- f.session.Snapshot()

	if !f.add(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	errorer := logfields.GovnrErrorer(f.logger)
	govnr.Once(errorer, func() {
		f.writeLoop(client)
	})
	govnr.Once(errorer, func() {
		f.readLoop(client)
	})
}

func (f *snapshotFeed) writeLoop(client *feedClient) {
	ticker := time.NewTicker(FEED_PING_INTERVAL)
	defer func() {
		ticker.Stop()
		f.remove(client)
		_ = client.conn.Close()
	}()

	for {
		select {
		case snapshot, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(FEED_WRITE_TIMEOUT))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := client.conn.WriteJSON(snapshot); err != nil {
				f.logger.Info("failed writing snapshot to websocket", log.Error(err))
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(FEED_WRITE_TIMEOUT))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// clients never send anything meaningful, reading only serves control frames
func (f *snapshotFeed) readLoop(client *feedClient) {
	defer f.remove(client)

	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(FEED_PONG_TIMEOUT))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(FEED_PONG_TIMEOUT))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
