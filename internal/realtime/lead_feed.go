package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedEvent is what subscribers receive for every stored lead activity.
type FeedEvent struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"project_id"`
	Activity  models.Activity `json:"activity"`
}

type subscriber struct {
	adminID int64
	// project is the office the subscriber follows; empty means all.
	project string
	conn    *websocket.Conn
	send    chan []byte
}

// LeadFeed pushes lead activity to connected admins of the same office.
type LeadFeed struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewLeadFeed() *LeadFeed {
	return &LeadFeed{subs: make(map[*subscriber]struct{})}
}

// PublishActivity implements services.ActivityPublisher. Slow subscribers
// miss events instead of blocking the writer.
func (f *LeadFeed) PublishActivity(projectID string, a models.Activity) {
	data, err := json.Marshal(FeedEvent{Type: "activity", ProjectID: projectID, Activity: a})
	if err != nil {
		logrus.WithError(err).Warn("[feed][publish] marshal failed")
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		if s.project != "" && s.project != projectID {
			continue
		}
		select {
		case s.send <- data:
		default:
			logrus.WithField("admin_id", s.adminID).Debug("[feed][publish] subscriber too slow, dropped")
		}
	}
}

// Subscribers returns the number of open connections.
func (f *LeadFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Serve registers the connection and blocks until the client goes away.
func (f *LeadFeed) Serve(conn *websocket.Conn, adminID int64, project string) {
	s := &subscriber{adminID: adminID, project: project, conn: conn, send: make(chan []byte, sendBuffer)}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
	logrus.WithFields(logrus.Fields{"admin_id": adminID, "project_id": project}).Info("[feed] subscribed")

	go f.writePump(s)
	f.readPump(s)
}

func (f *LeadFeed) remove(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.send)
	}
}

// readPump only drains control frames; clients never send data.
func (f *LeadFeed) readPump(s *subscriber) {
	defer func() {
		f.remove(s)
		s.conn.Close()
		logrus.WithField("admin_id", s.adminID).Info("[feed] unsubscribed")
	}()

	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *LeadFeed) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
