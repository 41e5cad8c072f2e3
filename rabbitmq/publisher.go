// Package rabbitmq publishes scan lifecycle events. Consumers include
// dashboard refreshers and the on-call alerting pipeline for billing
// exhaustion.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"visibility-scan-service/config"
	"visibility-scan-service/models"
)

// Publisher publishes scan events to a direct exchange. The connection
// is re-established lazily when a publish finds it closed.
type Publisher struct {
	mu               sync.Mutex
	amqpURL          string
	conn             *amqp.Connection
	channel          *amqp.Channel
	exchange         string
	scanCompletedKey string
	billingAlertKey  string
}

// scanCompletedEvent is the wire shape of a scan.completed message.
type scanCompletedEvent struct {
	Query          string    `json:"query"`
	BrandName      string    `json:"brand_name"`
	OverallScore   int       `json:"overall_score"`
	RespondedCount int       `json:"responded_count"`
	VisibleCount   int       `json:"visible_count"`
	TotalProviders int       `json:"total_providers"`
	Timestamp      time.Time `json:"timestamp"`
}

// billingAlertEvent is the wire shape of a billing-exhausted message.
type billingAlertEvent struct {
	ProviderID string    `json:"provider_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewPublisher creates a publisher and establishes an initial
// connection.
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p := &Publisher{
		amqpURL:          cfg.GetAMQPURL(),
		exchange:         cfg.Exchange,
		scanCompletedKey: cfg.ScanCompletedRoutingKey,
		billingAlertKey:  cfg.BillingAlertRoutingKey,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// PublishScanCompleted emits a scan.completed event with the aggregate
// result.
func (p *Publisher) PublishScanCompleted(result *models.ScanResult) error {
	return p.publishJSON(p.scanCompletedKey, scanCompletedEvent{
		Query:          result.Query,
		BrandName:      result.BrandName,
		OverallScore:   result.OverallScore,
		RespondedCount: result.RespondedCount,
		VisibleCount:   result.VisibleCount,
		TotalProviders: result.TotalProviders,
		Timestamp:      result.Timestamp,
	})
}

// PublishBillingAlert emits an alert that a provider rejected calls for
// exhausted billing or quota.
func (p *Publisher) PublishBillingAlert(providerID models.ProviderID) error {
	return p.publishJSON(p.billingAlertKey, billingAlertEvent{
		ProviderID: string(providerID),
		Timestamp:  time.Now().UTC(),
	})
}

func (p *Publisher) publishJSON(routingKey string, message interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	return p.publish(ctx, routingKey, publishing)
}

// Close closes the publisher connection and channel
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error

	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.Errorf("failed to close channel: %v", channelErr)
			err = channelErr
		}
	}

	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.Errorf("failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
	}

	return err
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	conn, err := amqp.Dial(p.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	select {
	case <-ctx.Done():
		ch.Close()
		conn.Close()
		return fmt.Errorf("context timeout while creating publisher: %w", ctx.Err())
	default:
	}

	p.conn = conn
	p.channel = ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func isConnClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	if strings.Contains(err.Error(), "channel/connection is not open") {
		return true
	}
	return false
}

func (p *Publisher) publish(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.channel == nil {
		p.closeLocked()
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	err := p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	if err != nil && isConnClosedErr(err) {
		p.closeLocked()
		if connErr := p.connectLocked(ctx); connErr != nil {
			return fmt.Errorf("failed to publish message: %w (reconnect failed: %v)", err, connErr)
		}
		err = p.channel.Publish(p.exchange, routingKey, false, false, publishing)
	}
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context timeout while publishing message: %w", ctx.Err())
	default:
	}
	return nil
}

// IsConnected indicates whether the publisher currently has an open connection/channel.
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}
