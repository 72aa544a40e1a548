package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/search"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/usecase"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Command subjects served by the announce-service. The gateway and the admin
// back office talk to this service over NATS request/reply.
const (
	CmdAnnounceCreate  = "announce.cmd.create"
	CmdAnnounceUpdate  = "announce.cmd.update"
	CmdAnnouncePublish = "announce.cmd.publish"
	CmdAnnounceSuspend = "announce.cmd.suspend"
	CmdAnnounceResume  = "announce.cmd.resume"
	CmdAnnounceDelete  = "announce.cmd.delete"
	CmdAnnounceGet     = "announce.cmd.get"
	CmdAnnounceSearch  = "announce.cmd.search"
	CmdReindex         = "announce.cmd.reindex"
	CmdSubscribe       = "announce.cmd.subscribe"
	CmdUnsubscribe     = "announce.cmd.unsubscribe"
)

const handlerTimeout = 30 * time.Second

// Reindexer is the synchronizer slice the admin reindex command needs.
type Reindexer interface {
	RunFull(ctx context.Context) error
}

type Subscriber struct {
	nc            *nats.Conn
	announces     *usecase.AnnounceUseCase
	subscriptions *usecase.SubscriptionUseCase
	reindexer     Reindexer
	logger        *zap.Logger
	subs          []*nats.Subscription
}

func NewSubscriber(
	nc *nats.Conn,
	announces *usecase.AnnounceUseCase,
	subscriptions *usecase.SubscriptionUseCase,
	reindexer Reindexer,
	logger *zap.Logger,
) *Subscriber {
	return &Subscriber{
		nc:            nc,
		announces:     announces,
		subscriptions: subscriptions,
		reindexer:     reindexer,
		logger:        logger,
	}
}

type reply struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type createRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Tags         []string `json:"tags"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
	AuthorID     string   `json:"author_id"`
	CategoryID   string   `json:"category_id"`
}

type updateRequest struct {
	ID          string   `json:"id"`
	AuthorID    string   `json:"author_id"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type idRequest struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id,omitempty"`
	// ByAuthor distinguishes the author suspending their own announce from
	// an operator action.
	ByAuthor bool `json:"by_author,omitempty"`
}

type searchRequest struct {
	CategoryID string  `json:"category_id,omitempty"`
	SectorID   string  `json:"sector_id,omitempty"`
	Keywords   string  `json:"keywords,omitempty"`
	DateMinMS  int64   `json:"date_min_ms,omitempty"`
	DateMaxMS  int64   `json:"date_max_ms,omitempty"`
	PriceMin   float64 `json:"price_min,omitempty"`
	PriceMax   float64 `json:"price_max,omitempty"`
	Sort       string  `json:"sort,omitempty"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

type subscribeRequest struct {
	SubscriberID string `json:"subscriber_id"`
	Kind         string `json:"kind"`
	TargetID     string `json:"target_id"`
}

// Start registers every command handler. Handlers run on the NATS delivery
// goroutine with a bounded timeout.
func (s *Subscriber) Start() error {
	handlers := map[string]nats.MsgHandler{
		CmdAnnounceCreate:  s.handleCreate,
		CmdAnnounceUpdate:  s.handleUpdate,
		CmdAnnouncePublish: s.handlePublish,
		CmdAnnounceSuspend: s.handleSuspend,
		CmdAnnounceResume:  s.handleResume,
		CmdAnnounceDelete:  s.handleDelete,
		CmdAnnounceGet:     s.handleGet,
		CmdAnnounceSearch:  s.handleSearch,
		CmdReindex:         s.handleReindex,
		CmdSubscribe:       s.handleSubscribe,
		CmdUnsubscribe:     s.handleUnsubscribe,
	}
	for subject, handler := range handlers {
		sub, err := s.nc.Subscribe(subject, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	s.logger.Info("NATS command handlers registered", zap.Int("subjects", len(handlers)))
	return nil
}

func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
}

func (s *Subscriber) respond(msg *nats.Msg, data interface{}, err error) {
	var r reply
	if err != nil {
		r.Error = err.Error()
	} else {
		r.OK = true
		if data != nil {
			raw, marshalErr := json.Marshal(data)
			if marshalErr != nil {
				r.OK = false
				r.Error = marshalErr.Error()
			} else {
				r.Data = raw
			}
		}
	}
	payload, _ := json.Marshal(r)
	if msg.Reply == "" {
		return
	}
	if respondErr := msg.Respond(payload); respondErr != nil {
		s.logger.Warn("Failed to respond to command",
			zap.String("subject", msg.Subject), zap.Error(respondErr))
	}
}

func (s *Subscriber) handleCreate(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req createRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	announce, err := s.announces.CreateAnnounce(ctx, usecase.CreateAnnounceInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Tags:         req.Tags,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		AuthorID:     req.AuthorID,
		CategoryID:   req.CategoryID,
	})
	s.respond(msg, announce, err)
}

func (s *Subscriber) handleUpdate(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req updateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	announce, err := s.announces.UpdateAnnounce(ctx, usecase.UpdateAnnounceInput{
		ID:          req.ID,
		AuthorID:    req.AuthorID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
	})
	s.respond(msg, announce, err)
}

func (s *Subscriber) handlePublish(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	announce, err := s.announces.Publish(ctx, req.ID)
	s.respond(msg, announce, err)
}

func (s *Subscriber) handleSuspend(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	var announce interface{}
	var err error
	if req.ByAuthor {
		announce, err = s.announces.SuspendByAuthor(ctx, req.ID, req.AuthorID)
	} else {
		announce, err = s.announces.SuspendByOperator(ctx, req.ID)
	}
	s.respond(msg, announce, err)
}

func (s *Subscriber) handleResume(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	var announce interface{}
	var err error
	if req.ByAuthor {
		announce, err = s.announces.ResumeByAuthor(ctx, req.ID, req.AuthorID)
	} else {
		announce, err = s.announces.ResumeByOperator(ctx, req.ID)
	}
	s.respond(msg, announce, err)
}

func (s *Subscriber) handleDelete(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	err := s.announces.DeleteAnnounce(ctx, req.ID, req.AuthorID)
	s.respond(msg, nil, err)
}

func (s *Subscriber) handleGet(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	announce, err := s.announces.GetAnnounceByID(ctx, req.ID)
	s.respond(msg, announce, err)
}

func (s *Subscriber) handleSearch(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req searchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	filter := search.Filter{
		CategoryID: req.CategoryID,
		SectorID:   req.SectorID,
		Keywords:   req.Keywords,
		PriceMin:   req.PriceMin,
		PriceMax:   req.PriceMax,
	}
	if req.DateMinMS > 0 {
		filter.DateMin = time.UnixMilli(req.DateMinMS)
	}
	if req.DateMaxMS > 0 {
		filter.DateMax = time.UnixMilli(req.DateMaxMS)
	}
	out, err := s.announces.SearchAnnounces(ctx, filter, search.Sort(req.Sort), req.Page, req.PageSize)
	s.respond(msg, out, err)
}

// handleReindex is the administrative "reindex now" action. It runs a full
// rebuild inline, force-acquiring the index writer if the periodic sync holds
// it.
func (s *Subscriber) handleReindex(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	err := s.reindexer.RunFull(ctx)
	s.respond(msg, nil, err)
}

func (s *Subscriber) handleSubscribe(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req subscribeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	sub, err := s.subscriptions.Subscribe(ctx, req.SubscriberID, entity.SubscriptionKind(req.Kind), req.TargetID)
	s.respond(msg, sub, err)
}

func (s *Subscriber) handleUnsubscribe(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respond(msg, nil, err)
		return
	}
	err := s.subscriptions.Unsubscribe(ctx, req.ID)
	s.respond(msg, nil, err)
}
