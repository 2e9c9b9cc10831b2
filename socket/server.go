package socket

import (
	"log"

	"spark_server/models"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server. Clients join a room
// named after their own user ID and receive spark events for it.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Println("❌ Invalid userId in join request")
			return
		}
		log.Printf("👥 Socket %s joined room %s\n", c.ID(), userID)
		c.Join(userID)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return server
}

// SparkNotifier pushes spark lifecycle events to both participants' rooms.
// Implements services.Notifier.
type SparkNotifier struct {
	Server *socketio.Server
}

func (n *SparkNotifier) SparkCreated(spark models.Spark) {
	n.broadcast("spark:new", spark)
}

func (n *SparkNotifier) SparkUpdated(spark models.Spark) {
	n.broadcast("spark:update", spark)
}

func (n *SparkNotifier) broadcast(event string, spark models.Spark) {
	for _, room := range []string{spark.UserAID, spark.UserBID} {
		n.Server.BroadcastToRoom("/", room, event, spark)
	}
}
