package config

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakeAMQP struct{ closed bool }

func (f fakeAMQP) IsClosed() bool { return f.closed }

type fakeMQTT struct {
	mqtt.Client
	connected bool
}

func (f fakeMQTT) IsConnected() bool { return f.connected }

type fakeMongo struct{ err error }

func (f fakeMongo) Ping(context.Context, *readpref.ReadPref) error { return f.err }

func runHealth(t *testing.T, h *HealthChecker) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return w.Code, body
}

func TestHealth_AllUp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()
	mock.ExpectPing()

	h := &HealthChecker{db: db, amqpConn: fakeAMQP{}, mqtt: fakeMQTT{connected: true}}
	code, body := runHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["mongo"].(map[string]any)["status"] != "disabled" {
		t.Errorf("expected mongo disabled, got %v", deps["mongo"])
	}
}

func TestHealth_RequiredDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	h := &HealthChecker{db: db, amqpConn: fakeAMQP{closed: true}, mqtt: fakeMQTT{}}
	code, body := runHealth(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy, got %v", body["status"])
	}
}

func TestHealth_OptionalDownStaysHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()
	mock.ExpectPing()

	h := &HealthChecker{db: db, amqpConn: fakeAMQP{}, mqtt: fakeMQTT{connected: true}, mongo: fakeMongo{err: errors.New("no reachable servers")}}
	code, body := runHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["mongo"].(map[string]any)["status"] != "down" {
		t.Errorf("expected mongo down, got %v", deps["mongo"])
	}
}

func TestHealth_AMQPChannelClosedStaysHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()
	mock.ExpectPing()

	h := (&HealthChecker{db: db, amqpConn: fakeAMQP{}, mqtt: fakeMQTT{connected: true}}).
		WithAMQPChannel(func() bool { return false })
	code, body := runHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["rabbitmq_channel"].(map[string]any)["status"] != "closed" {
		t.Errorf("expected rabbitmq_channel closed, got %v", deps["rabbitmq_channel"])
	}
}
