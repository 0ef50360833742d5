// Package natsapi answers resection requests over NATS request/reply. Both
// directions are msgpack-encoded.
package natsapi

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/logging"
	"github.com/pspoerri/fosfix/internal/observability"
	"github.com/pspoerri/fosfix/internal/resection"
)

// Reply is the envelope sent back for every request. Exactly one field is
// set.
type Reply struct {
	Result *api.ResectResponse `msgpack:"result,omitempty"`
	Error  *api.ErrorResponse  `msgpack:"error,omitempty"`
}

// Config selects the subject and queue group the responder joins.
type Config struct {
	Subject string
	Queue   string
}

// Responder serves api.ResectRequest messages with a resection.Engine.
type Responder struct {
	cfg     Config
	engine  *resection.Engine
	metrics *observability.Collector
	log     logging.Logger

	ctx context.Context
	sub *nats.Subscription
}

// NewResponder returns a Responder; metrics and log may be nil.
func NewResponder(cfg Config, engine *resection.Engine, metrics *observability.Collector, log logging.Logger) *Responder {
	if log == nil {
		log = logging.Noop()
	}
	return &Responder{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
		log:     log.With(logging.String("subject", cfg.Subject)),
		ctx:     context.Background(),
	}
}

// Connect dials url with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("fosd"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Start joins the queue group on conn. Handlers run with ctx as parent.
func (r *Responder) Start(ctx context.Context, conn *nats.Conn) error {
	r.ctx = ctx
	sub, err := conn.QueueSubscribe(r.cfg.Subject, r.cfg.Queue, r.onMsg)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", r.cfg.Subject, err)
	}
	r.sub = sub
	r.log.Info(ctx, "nats responder listening", logging.String("queue", r.cfg.Queue))
	return nil
}

// Stop drains the subscription.
func (r *Responder) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Drain()
}

func (r *Responder) onMsg(msg *nats.Msg) {
	ctx, log := logging.WithRequestLogger(r.ctx, r.log)
	out, err := msgpack.Marshal(r.Handle(ctx, msg.Data))
	if err != nil {
		log.Error(ctx, "encode reply", logging.Err(err))
		return
	}
	if msg.Reply == "" {
		log.Warn(ctx, "request without reply subject dropped")
		return
	}
	if err := msg.Respond(out); err != nil {
		log.Warn(ctx, "respond", logging.Err(err))
	}
}

// Handle decodes one msgpack request, solves it and builds the reply.
func (r *Responder) Handle(ctx context.Context, data []byte) Reply {
	reply := r.handle(ctx, data)
	code := 200
	if reply.Error != nil {
		code = reply.Error.Code
	}
	r.metrics.ObserveNATS(r.cfg.Subject, code)
	return reply
}

func (r *Responder) handle(ctx context.Context, data []byte) Reply {
	var req api.ResectRequest
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return errorReply(&resection.Error{
			Kind: resection.KindInvalidInput,
			Msg:  "decode request",
			Err:  err,
		})
	}
	in, err := req.Input()
	if err != nil {
		return errorReply(err)
	}
	res, err := r.engine.Solve(ctx, in)
	if err != nil {
		return errorReply(err)
	}
	resp := api.NewResectResponse(res)
	return Reply{Result: &resp}
}

func errorReply(err error) Reply {
	e := api.NewErrorResponse(err)
	return Reply{Error: &e}
}
