package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type locationMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type sender func(ctx context.Context, deviceID string, payload []byte) error

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Simulate a device reporting its position",
	}
	cmd.AddCommand(routeCmd())
	return cmd
}

func routeCmd() *cobra.Command {
	var (
		deviceID  string
		transport string
		broker    string
		brokers   []string
		topic     string
		from      []float64
		to        []float64
		steps     int
		interval  time.Duration
		accuracy  float64
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Publish positions moving in a straight line between two points",
		Long: `Publish positions moving in a straight line between two points.

Examples:
  simulator route --from -23.5505,-46.6333 --to -23.5614,-46.6559
  simulator route --transport kafka --brokers localhost:9092 --steps 60 --interval 500ms
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(from) != 2 || len(to) != 2 {
				return fmt.Errorf("--from and --to take lat,lng")
			}
			start := domain.GeoPoint{Lat: from[0], Lng: from[1]}
			end := domain.GeoPoint{Lat: to[0], Lng: to[1]}
			if !start.Valid() || !end.Valid() {
				return fmt.Errorf("coordinates out of range")
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var send sender
			switch transport {
			case "mqtt":
				client, err := connectMQTT(broker, deviceID)
				if err != nil {
					return err
				}
				defer client.Disconnect(250)
				send = mqttSender(client)
			case "kafka":
				w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.Hash{}}
				defer func() { _ = w.Close() }()
				send = kafkaSender(w)
			default:
				return fmt.Errorf("unknown transport %q", transport)
			}

			return run(ctx, send, deviceID, interpolate(start, end, steps), interval, accuracy)
		},
	}

	cmd.Flags().StringVar(&deviceID, "device", "phone-1", "Device id")
	cmd.Flags().StringVar(&transport, "transport", "mqtt", "mqtt or kafka")
	cmd.Flags().StringVar(&broker, "mqtt-broker", envOr("MQTT_BROKER", "tcp://localhost:1883"), "MQTT broker URL")
	cmd.Flags().StringSliceVar(&brokers, "brokers", []string{"localhost:9092"}, "Kafka brokers")
	cmd.Flags().StringVar(&topic, "topic", "sonecaz.positions", "Kafka topic")
	cmd.Flags().Float64SliceVar(&from, "from", []float64{-23.5505, -46.6333}, "Start lat,lng")
	cmd.Flags().Float64SliceVar(&to, "to", []float64{-23.5614, -46.6559}, "Destination lat,lng")
	cmd.Flags().IntVar(&steps, "steps", 30, "Number of positions to publish")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between positions")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 10, "Reported accuracy in meters")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func connectMQTT(broker, deviceID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("sonecaz-simulator-" + deviceID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

func mqttSender(client mqtt.Client) sender {
	return func(_ context.Context, deviceID string, payload []byte) error {
		token := client.Publish(fmt.Sprintf("/sonecaz/device/%s/location", deviceID), 1, false, payload)
		token.Wait()
		return token.Error()
	}
}

func kafkaSender(w *kafka.Writer) sender {
	return func(ctx context.Context, deviceID string, payload []byte) error {
		return w.WriteMessages(ctx, kafka.Message{Key: []byte(deviceID), Value: payload})
	}
}

func run(ctx context.Context, send sender, deviceID string, route []domain.GeoPoint, interval time.Duration, accuracy float64) error {
	end := route[len(route)-1]
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, p := range route {
		payload, err := json.Marshal(locationMessage{
			DeviceID:  deviceID,
			Latitude:  p.Lat,
			Longitude: p.Lng,
			Accuracy:  accuracy,
			Timestamp: time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		if err := send(ctx, deviceID, payload); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Printf("[%d/%d] %.6f,%.6f %s from destination", i+1, len(route), p.Lat, p.Lng, domain.FormatDistance(domain.Distance(p, end)))

		if i == len(route)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
