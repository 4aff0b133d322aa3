package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanctr3/b2b/internal/notification"
	"github.com/juanctr3/b2b/internal/notification/outbox"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"
)

// WhatsAppSender delivers a text message through the outbound gateway.
type WhatsAppSender interface {
	Send(ctx context.Context, to, message string) error
}

// EmailSender delivers a backup lead alert by email.
type EmailSender interface {
	SendLeadAlert(ctx context.Context, toEmail string, leadID int64, city, requirement, link string) error
}

// Worker consumes queued outbox deliveries and performs the sends.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	repo     *outbox.Repository
	whatsapp WhatsAppSender
	email    EmailSender
	log      *logger.Logger
}

// NewWorker creates the asynq consumer.
func NewWorker(cfg config.WorkerConfig, pool *pgxpool.Pool, whatsapp WhatsAppSender, email EmailSender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetWorkerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		repo:     outbox.New(pool),
		whatsapp: whatsapp,
		email:    email,
		log:      log,
	}

	mux.HandleFunc(TaskOutboxDeliver, w.handleOutboxDeliver)

	return w, nil
}

func (w *Worker) handleOutboxDeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutboxDeliverPayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetByID(ctx, outboxID)
	if err != nil {
		return err
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := w.repo.MarkDelivering(ctx, rec.ID); err != nil {
		return err
	}

	if err := w.deliver(ctx, rec); err != nil {
		_ = w.repo.MarkFailed(ctx, rec.ID, err.Error())
		w.log.Warn("outbox delivery failed", "outbox_id", rec.ID, "kind", rec.Kind, "error", err)
		return err
	}

	if err := w.repo.MarkSucceeded(ctx, rec.ID); err != nil {
		return err
	}
	w.log.Info("outbox delivery succeeded", "outbox_id", rec.ID, "kind", rec.Kind)
	return nil
}

func (w *Worker) deliver(ctx context.Context, rec outbox.Record) error {
	switch rec.Kind {
	case outbox.KindWhatsApp:
		var payload notification.WhatsAppPayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("decode whatsapp payload: %w", err)
		}
		return w.whatsapp.Send(ctx, rec.Recipient, payload.Message)
	case outbox.KindEmail:
		var payload notification.EmailPayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return w.email.SendLeadAlert(ctx, rec.Recipient, payload.LeadID, payload.City, payload.Requirement, payload.Link)
	default:
		return fmt.Errorf("unknown outbox kind %q", rec.Kind)
	}
}

// Run blocks processing tasks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("delivery worker stopped", "error", err)
	}
}
