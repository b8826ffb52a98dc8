package config

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTHooks are called from the client's own goroutines.
type MQTTHooks struct {
	// OnLost runs when an established connection drops.
	OnLost func(error)
	// OnConnect runs after every successful connect, including the
	// automatic reconnects. Clean sessions lose their subscriptions, so
	// this is where they are restored.
	OnConnect func()
}

func mqttOptions(cfg *Config, hooks MQTTHooks) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			if hooks.OnConnect != nil {
				hooks.OnConnect()
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt connection lost: %v", err)
			if hooks.OnLost != nil {
				hooks.OnLost(err)
			}
		})
}

// NewMQTT connects to the broker. The client reconnects on its own.
func NewMQTT(cfg *Config, hooks MQTTHooks) (mqtt.Client, error) {
	client := mqtt.NewClient(mqttOptions(cfg, hooks))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}
