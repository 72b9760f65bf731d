// Package bot turns incoming chat messages into replies.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/evyataryagoni/ipgeobot/internal/format"
	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	"github.com/evyataryagoni/ipgeobot/internal/models"
	"github.com/evyataryagoni/ipgeobot/internal/validate"
)

// Route names, also used as the metrics label
const (
	RouteStart          = "start"
	RouteHelp           = "help"
	RouteIPWithArg      = "ip_with_arg"
	RouteIPNoArg        = "ip_no_arg"
	RouteTextIP         = "text_ip"
	RouteTextNotIP      = "text_not_ip"
	RouteUnknownCommand = "unknown_command"
)

// Lookuper resolves an IPQuery (see service.LookupService)
type Lookuper interface {
	Lookup(ctx context.Context, query models.IPQuery) models.LookupResult
}

// Responder sends replies back into the conversation a message came from
type Responder interface {
	Respond(ctx context.Context, msg models.OutgoingMessage) error
}

type handlerFunc func(ctx context.Context, msg models.IncomingMessage, resp Responder) error

// route pairs a predicate with a handler. Routes are tried in order.
type route struct {
	name    string
	matches func(msg models.IncomingMessage) bool
	handle  handlerFunc
}

// Router is the stateless message dispatcher.
// It holds no per-message state and is safe for concurrent use.
type Router struct {
	lookuper Lookuper
	metrics  *metrics.Metrics
	logger   *logger.Logger
	routes   []route
}

// NewRouter creates a router. m and log may be nil.
func NewRouter(lookuper Lookuper, m *metrics.Metrics, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewDefault()
	}
	r := &Router{
		lookuper: lookuper,
		metrics:  m,
		logger:   log.WithComponent("Router"),
	}

	r.routes = []route{
		{RouteStart, isCommand("start"), r.reply(models.OutgoingMessage{Text: format.WelcomeText})},
		{RouteHelp, isCommand("help"), r.reply(models.OutgoingMessage{Text: format.HelpText})},
		{RouteIPWithArg, all(isCommand("ip"), hasArgs), r.lookupArgument},
		{RouteIPNoArg, isCommand("ip"), r.lookupSelf},
		{RouteUnknownCommand, isAnyCommand, r.reply(models.OutgoingMessage{Text: format.UnknownCommandText})},
		{RouteTextIP, isAddressText, r.lookupText},
		{RouteTextNotIP, isText, r.reply(models.OutgoingMessage{Text: format.NotAnAddressText, Markdown: true})},
	}

	return r
}

// Handle routes one message. It is the outer error boundary: a failing or
// panicking handler is logged and answered with an apology, never propagated.
func (r *Router) Handle(ctx context.Context, msg models.IncomingMessage, resp Responder) {
	log := r.logger.WithChat(msg.ChatID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("Panic while handling message")
			r.apologize(ctx, resp, log)
		}
	}()

	rt, ok := r.match(msg)
	if !ok {
		log.Debug().Msg("No route for message")
		return
	}

	log.Info().Str("route", rt.name).Msg("Handling message")
	if r.metrics != nil {
		r.metrics.MessagesTotal.WithLabelValues(rt.name).Inc()
	}

	if err := rt.handle(ctx, msg, resp); err != nil {
		log.Error().Err(err).Str("route", rt.name).Msg("Failed to handle message")
		r.apologize(ctx, resp, log)
	}
}

// Route returns the name of the route msg would take
func (r *Router) Route(msg models.IncomingMessage) string {
	rt, ok := r.match(msg)
	if !ok {
		return ""
	}
	return rt.name
}

func (r *Router) match(msg models.IncomingMessage) (route, bool) {
	for _, rt := range r.routes {
		if rt.matches(msg) {
			return rt, true
		}
	}
	return route{}, false
}

func (r *Router) apologize(ctx context.Context, resp Responder, log *logger.Logger) {
	if err := resp.Respond(ctx, models.OutgoingMessage{Text: format.ApologyText}); err != nil {
		log.Error().Err(err).Msg("Failed to send apology")
	}
}

func (r *Router) reply(out models.OutgoingMessage) handlerFunc {
	return func(ctx context.Context, _ models.IncomingMessage, resp Responder) error {
		return resp.Respond(ctx, out)
	}
}

// lookupArgument passes the first argument through unvalidated,
// unlike free text which must be an IPv4 address to get here.
func (r *Router) lookupArgument(ctx context.Context, msg models.IncomingMessage, resp Responder) error {
	return r.runLookup(ctx, models.IPQuery{Address: msg.Args[0]}, format.FetchingText, resp)
}

func (r *Router) lookupSelf(ctx context.Context, _ models.IncomingMessage, resp Responder) error {
	return r.runLookup(ctx, models.IPQuery{}, format.DetectingText, resp)
}

func (r *Router) lookupText(ctx context.Context, msg models.IncomingMessage, resp Responder) error {
	return r.runLookup(ctx, models.IPQuery{Address: msg.RawText}, format.FetchingText, resp)
}

// runLookup acknowledges, looks up, formats and replies, strictly in that order
func (r *Router) runLookup(ctx context.Context, query models.IPQuery, ack string, resp Responder) error {
	if err := resp.Respond(ctx, models.OutgoingMessage{Text: ack}); err != nil {
		return fmt.Errorf("send acknowledgment: %w", err)
	}

	result := r.lookuper.Lookup(ctx, query)

	if err := resp.Respond(ctx, models.OutgoingMessage{Text: format.Result(result), Markdown: true}); err != nil {
		return fmt.Errorf("send lookup result: %w", err)
	}
	return nil
}

func isCommand(name string) func(models.IncomingMessage) bool {
	return func(msg models.IncomingMessage) bool {
		return msg.Kind == models.KindCommand && msg.CommandName == name
	}
}

func isAnyCommand(msg models.IncomingMessage) bool {
	return msg.Kind == models.KindCommand
}

func isText(msg models.IncomingMessage) bool {
	return msg.Kind == models.KindText
}

func isAddressText(msg models.IncomingMessage) bool {
	return isText(msg) && validate.IsIPv4(msg.RawText)
}

func hasArgs(msg models.IncomingMessage) bool {
	return len(msg.Args) > 0
}

func all(preds ...func(models.IncomingMessage) bool) func(models.IncomingMessage) bool {
	return func(msg models.IncomingMessage) bool {
		for _, p := range preds {
			if !p(msg) {
				return false
			}
		}
		return true
	}
}
