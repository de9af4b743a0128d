package main

import (
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. Its id doubles as the player id of
// any seat it takes.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan Event
	room string
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, buffer),
	}
}

// originAllowed reports whether a browser origin may open a socket or read
// the JSON endpoints. An empty allowlist accepts everything.
func originAllowed(cfg *Config, origin string) bool {
	allowed := cfg.origins()
	if len(allowed) == 0 || origin == "" {
		return true
	}

	if slices.Contains(allowed, origin) {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	for _, a := range allowed {
		// "*.example.com" admits any https subdomain, matching preview deployments.
		if suffix, ok := strings.CutPrefix(a, "*."); ok && u.Scheme == "https" && strings.HasSuffix(u.Host, "."+suffix) {
			return true
		}
	}

	return false
}

func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(cfg, r.Header.Get("Origin"))
		},
	}
}

func serveWS(cfg *Config, g *Gateway) httprouter.Handle {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := newClient(conn, cfg.sendBuffer)

		if !g.enter(client) {
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Connection %s from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(g)

		logf(cfg, "SERVE: Connection %s closed", client.id)
	}
}

func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.exit(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := decodeCommand(data)
		if !g.submit(c, cmd, err) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(newFrame(ev)); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
