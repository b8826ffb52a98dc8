package config

import (
	"context"
	"database/sql"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type connState interface {
	IsClosed() bool
}

type mongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// HealthChecker reports required dependencies and, when configured,
// the optional ones. An optional dependency being down does not fail
// the check since the alarm keeps working without it.
type HealthChecker struct {
	db       *sql.DB
	amqpConn connState
	mqtt     mqtt.Client
	mongo    mongoPinger

	// reports the notification publisher's AMQP channel
	amqpChannelOpen func() bool
}

func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, mongoClient *mongo.Client) *HealthChecker {
	h := &HealthChecker{db: db, amqpConn: amqpConn, mqtt: mqttClient}
	if mongoClient != nil {
		h.mongo = mongoClient
	}
	return h
}

// WithAMQPChannel adds the notification channel to the report. A closed
// channel is reopened on the next publish, so it does not fail the check
// while the connection is up.
func (h *HealthChecker) WithAMQPChannel(open func() bool) *HealthChecker {
	h.amqpChannelOpen = open
	return h
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		deps["database"] = gin.H{"status": "down", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		deps["database"] = gin.H{"status": "up"}
	}

	if h.amqpConn.IsClosed() {
		deps["rabbitmq"] = gin.H{"status": "down", "error": "connection closed"}
		status = http.StatusServiceUnavailable
	} else {
		deps["rabbitmq"] = gin.H{"status": "up"}
	}
	if h.amqpChannelOpen != nil {
		if h.amqpChannelOpen() {
			deps["rabbitmq_channel"] = gin.H{"status": "up"}
		} else {
			deps["rabbitmq_channel"] = gin.H{"status": "closed", "error": "reopens on next publish"}
		}
	}

	if !h.mqtt.IsConnected() {
		deps["mqtt"] = gin.H{"status": "down", "error": "not connected"}
		status = http.StatusServiceUnavailable
	} else {
		deps["mqtt"] = gin.H{"status": "up"}
	}

	if h.mongo == nil {
		deps["mongo"] = gin.H{"status": "disabled"}
	} else if err := h.mongo.Ping(c.Request.Context(), nil); err != nil {
		deps["mongo"] = gin.H{"status": "down", "error": err.Error()}
	} else {
		deps["mongo"] = gin.H{"status": "up"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
