package socket

import (
	"time"

	"duomatch_server/logger"
	"duomatch_server/models"

	socketio "github.com/googollee/go-socket.io"
)

// MatchReleasedEvent is emitted to each matched user's room
const MatchReleasedEvent = "matchReleased"

// MatchReleased is the payload of MatchReleasedEvent
type MatchReleased struct {
	MatchID            string   `json:"matchId"`
	MatchWeek          string   `json:"matchWeek"`
	CompatibilityScore int      `json:"compatibilityScore"`
	Partner            string   `json:"partner"`    // the user's own duo partner
	MatchedDuo         []string `json:"matchedDuo"` // the other duo
}

// Broadcaster is the part of *socketio.Server the notifier uses
type Broadcaster interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// Notifier tells connected users that their weekly match is out
type Notifier struct {
	Server Broadcaster
	Log    *logger.Logger
}

// NewSocketServer creates a Socket.IO server where each client joins the room named by its user id
func NewSocketServer(log *logger.Logger) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Debug("Socket connected", "id", s.ID())
		return nil
	})

	server.OnEvent("/", "join", func(s socketio.Conn, userID string) {
		if userID == "" {
			log.Warn("Invalid userId in join request", "id", s.ID())
			return
		}
		s.Join(userID)
		log.Debug("Socket joined user room", "id", s.ID(), "userId", userID)
	})

	server.OnError("/", func(s socketio.Conn, err error) {
		log.Warn("Socket error", "error", err)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Debug("Socket disconnected", "id", s.ID(), "reason", reason)
	})

	return server
}

// Payloads builds one event per participant of each match, keyed by user id
func Payloads(matches []models.WeeklyMatch) map[string]MatchReleased {
	out := make(map[string]MatchReleased, len(matches)*4)
	for _, m := range matches {
		duoA := []string{m.User1ID, m.User2ID}
		duoB := []string{m.User3ID, m.User4ID}
		for i, id := range m.UserIDs() {
			p := MatchReleased{
				MatchID:            m.MatchID,
				MatchWeek:          m.MatchWeek,
				CompatibilityScore: m.CompatibilityScore,
			}
			if i < 2 {
				p.Partner, p.MatchedDuo = duoA[1-i], duoB
			} else {
				p.Partner, p.MatchedDuo = duoB[3-i], duoA
			}
			out[id] = p
		}
	}
	return out
}

// NotifyMatches broadcasts to every participant and returns how many rooms had listeners
func (n *Notifier) NotifyMatches(week time.Time, matches []models.WeeklyMatch) int {
	delivered := 0
	for userID, payload := range Payloads(matches) {
		if n.Server.BroadcastToRoom("/", userID, MatchReleasedEvent, payload) {
			delivered++
		}
	}
	n.Log.Info("Match release broadcast", "week", models.FormatMatchWeek(week), "users", len(matches)*4, "delivered", delivered)
	return delivered
}
