package ws

import (
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Overload1252/wowjudo-lootboxes/internal/net/proto"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades requests and attaches them to a Feed.
type Handler struct {
	feed     *Feed
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(feed *Feed, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		feed:     feed,
		logger:   logger,
		upgrader: upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("feed upgrade failed: %v", err)
		return
	}
	h.Serve(conn)
}

// Serve greets the connection, subscribes it to the feed and answers client
// heartbeats until the connection fails.
func (h *Handler) Serve(conn *websocket.Conn) {
	if h == nil || h.feed == nil || conn == nil {
		return
	}

	sess, ok := h.feed.subscribe(conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}
	defer h.feed.unsubscribe(sess.id)

	hello, err := proto.EncodeHello(proto.Hello{
		Session:    sess.id,
		ServerTime: time.Now().UnixMilli(),
		Types:      h.feed.Types(),
	})
	if err != nil {
		h.logger.Printf("failed to marshal hello for %s: %v", sess.id, err)
		return
	}
	if err := sess.write(hello); err != nil {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sess.id, err)
			continue
		}

		switch msg.Type {
		case proto.TypeHeartbeat:
			now := time.Now()
			var rtt int64
			if msg.SentAt > 0 {
				rtt = max(0, now.UnixMilli()-msg.SentAt)
			}
			data, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt,
			})
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", sess.id, err)
				continue
			}
			if err := sess.write(data); err != nil {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, sess.id)
		}
	}
}
