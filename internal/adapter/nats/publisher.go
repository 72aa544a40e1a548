package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	AnnounceCreatedSubject   = "announce.created"
	AnnouncePublishedSubject = "announce.published"
	AnnounceSuspendedSubject = "announce.suspended"
	AnnounceDeletedSubject   = "announce.deleted"
)

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type announceEventPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	AuthorID    string   `json:"author_id"`
	CategoryID  string   `json:"category_id"`
	Price       float64  `json:"price,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Visible     bool     `json:"visible"`
	PublishedAt int64    `json:"published_at_ms,omitempty"`
}

type deletedEventPayload struct {
	ID string `json:"id"`
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

// Conn exposes the underlying connection so the command subscriber can share
// it.
func (p *Publisher) Conn() *nats.Conn {
	return p.nc
}

func (p *Publisher) PublishAnnounceCreated(ctx context.Context, announce *entity.Announce) error {
	return p.publishAnnounce(AnnounceCreatedSubject, announce)
}

func (p *Publisher) PublishAnnouncePublished(ctx context.Context, announce *entity.Announce) error {
	return p.publishAnnounce(AnnouncePublishedSubject, announce)
}

func (p *Publisher) PublishAnnounceSuspended(ctx context.Context, announce *entity.Announce) error {
	return p.publishAnnounce(AnnounceSuspendedSubject, announce)
}

func (p *Publisher) publishAnnounce(subject string, announce *entity.Announce) error {
	payload := announceEventPayload{
		ID:         announce.ID,
		Title:      announce.Title,
		AuthorID:   announce.AuthorID,
		CategoryID: announce.CategoryID,
		Price:      announce.Price,
		Tags:       announce.Tags,
		Visible:    announce.Visible(),
	}
	if !announce.PublishedAt.IsZero() {
		payload.PublishedAt = announce.PublishedAt.UnixMilli()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal announce for %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", subject), zap.String("announce_id", announce.ID), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Debug("Published NATS message",
		zap.String("subject", subject), zap.String("announce_id", announce.ID))
	return nil
}

func (p *Publisher) PublishAnnounceDeleted(ctx context.Context, announceID string) error {
	data, err := json.Marshal(deletedEventPayload{ID: announceID})
	if err != nil {
		return fmt.Errorf("failed to marshal announce ID for %s: %w", AnnounceDeletedSubject, err)
	}
	if err := p.nc.Publish(AnnounceDeletedSubject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", AnnounceDeletedSubject), zap.String("announce_id", announceID), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", AnnounceDeletedSubject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
