package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDisabled no hay brokers configurados.
var ErrDisabled = errors.New("kafka: deshabilitado")

// Client conexión lógica a los brokers; sin brokers queda deshabilitado.
type Client struct {
	Brokers     []string
	TopicPrefix string
}

// NewClient construye el cliente con la lista de brokers (vacíos descartados).
func NewClient(brokers []string, topicPrefix string) *Client {
	list := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return &Client{Brokers: list, TopicPrefix: topicPrefix}
}

// Enabled indica si hay al menos un broker.
func (c *Client) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

// Topic nombre del topic de un tipo de evento: "<prefijo>.<agregado>" (order.created -> marketplace.order).
func (c *Client) Topic(eventType string) string {
	aggregate := eventType
	if i := strings.Index(eventType, "."); i > 0 {
		aggregate = eventType[:i]
	}
	if c.TopicPrefix == "" {
		return aggregate
	}
	return c.TopicPrefix + "." + aggregate
}

// NewWriter writer sin topic fijo: cada mensaje lleva el suyo. La clave de particionado
// (id del agregado) mantiene el orden por agregado.
func (c *Client) NewWriter() (*kafka.Writer, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}, nil
}

// NewReader lector con grupo de consumo.
func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// Message construye el mensaje JSON para un topic.
func Message(topic, key string, payload any) (kafka.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Topic: topic, Key: []byte(key), Value: data, Time: time.Now().UTC()}, nil
}

// PublishJSON serializa y publica un único mensaje.
func PublishJSON(ctx context.Context, writer *kafka.Writer, topic, key string, payload any) error {
	if writer == nil {
		return ErrDisabled
	}
	msg, err := Message(topic, key, payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, msg)
}
