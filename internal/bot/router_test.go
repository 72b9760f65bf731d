package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/evyataryagoni/ipgeobot/internal/format"
	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	"github.com/evyataryagoni/ipgeobot/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func command(name string, args ...string) models.IncomingMessage {
	raw := "/" + name
	if len(args) > 0 {
		raw += " " + strings.Join(args, " ")
	}
	return models.IncomingMessage{ChatID: 1, Kind: models.KindCommand, CommandName: name, Args: args, RawText: raw}
}

func text(s string) models.IncomingMessage {
	return models.IncomingMessage{ChatID: 1, Kind: models.KindText, RawText: s}
}

func okResult() models.LookupResult {
	country := "United States"
	return models.Success(&models.GeoRecord{IP: "1.1.1.1", Country: &country})
}

// TestRouter_Route tests the routing table order
func TestRouter_Route(t *testing.T) {
	router := NewRouter(NewMockLookuper(okResult()), nil, logger.Nop())

	tests := []struct {
		name string
		msg  models.IncomingMessage
		want string
	}{
		{"start", command("start"), RouteStart},
		{"help", command("help"), RouteHelp},
		{"ip with argument", command("ip", "1.1.1.1"), RouteIPWithArg},
		{"ip with garbage argument", command("ip", "not-an-ip"), RouteIPWithArg},
		{"ip without argument", command("ip"), RouteIPNoArg},
		{"unknown command", command("weather"), RouteUnknownCommand},
		{"address text", text("8.8.8.8"), RouteTextIP},
		{"free text", text("hello"), RouteTextNotIP},
		{"out of range text", text("256.1.1.1"), RouteTextNotIP},
		{"empty text", text(""), RouteTextNotIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := router.Route(tt.msg); got != tt.want {
				t.Errorf("expected route %s, got %s", tt.want, got)
			}
		})
	}
}

// TestRouter_Start tests the welcome text
func TestRouter_Start(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), command("start"), resp)

	texts := resp.Texts()
	if len(texts) != 1 || texts[0] != format.WelcomeText {
		t.Fatalf("expected welcome text, got %v", texts)
	}
	if !strings.Contains(texts[0], "8.8.8.8") || !strings.Contains(texts[0], "/ip 8.8.8.8") {
		t.Error("expected usage examples in welcome text")
	}
	if len(lookuper.Calls()) != 0 {
		t.Error("expected no lookup for /start")
	}
}

// TestRouter_Help tests the help text
func TestRouter_Help(t *testing.T) {
	resp := NewMockResponder()

	NewRouter(NewMockLookuper(okResult()), nil, logger.Nop()).Handle(context.Background(), command("help"), resp)

	texts := resp.Texts()
	if len(texts) != 1 || texts[0] != format.HelpText {
		t.Fatalf("expected help text, got %v", texts)
	}
}

// TestRouter_IPWithArgument tests a single lookup with the given address
func TestRouter_IPWithArgument(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), command("ip", "1.1.1.1"), resp)

	calls := lookuper.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 lookup, got %d", len(calls))
	}
	if calls[0].Address != "1.1.1.1" || calls[0].IsSelf() {
		t.Errorf("expected lookup of 1.1.1.1, got %+v", calls[0])
	}

	texts := resp.Texts()
	if len(texts) != 2 {
		t.Fatalf("expected acknowledgment and result, got %v", texts)
	}
	if texts[0] != format.FetchingText {
		t.Errorf("expected fetching acknowledgment first, got %q", texts[0])
	}
	if !resp.Sent[1].Markdown {
		t.Error("expected result to be sent as markdown")
	}
	if !strings.Contains(texts[1], "United States") {
		t.Errorf("expected formatted result, got %q", texts[1])
	}
}

// TestRouter_IPArgumentNotValidated tests that command arguments skip validation
func TestRouter_IPArgumentNotValidated(t *testing.T) {
	lookuper := NewMockLookuper(models.Failure(models.LookupError{Kind: models.ErrRemoteReported, Address: "999.1.1.1"}))
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), command("ip", "999.1.1.1", "extra"), resp)

	calls := lookuper.Calls()
	if len(calls) != 1 || calls[0].Address != "999.1.1.1" {
		t.Fatalf("expected unvalidated first argument to be looked up, got %+v", calls)
	}
	if texts := resp.Texts(); !strings.Contains(texts[1], "999.1.1.1") {
		t.Errorf("expected remote error naming the address, got %q", texts[1])
	}
}

// TestRouter_IPWithoutArgument tests self-discovery
func TestRouter_IPWithoutArgument(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), command("ip"), resp)

	calls := lookuper.Calls()
	if len(calls) != 1 || !calls[0].IsSelf() {
		t.Fatalf("expected one self lookup, got %+v", calls)
	}
	if texts := resp.Texts(); texts[0] != format.DetectingText {
		t.Errorf("expected detecting acknowledgment, got %q", texts[0])
	}
}

// TestRouter_TextAddress tests free text that is an address
func TestRouter_TextAddress(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), text("8.8.8.8"), resp)

	calls := lookuper.Calls()
	if len(calls) != 1 || calls[0].Address != "8.8.8.8" {
		t.Fatalf("expected lookup of 8.8.8.8, got %+v", calls)
	}
	if texts := resp.Texts(); len(texts) != 2 || texts[0] != format.FetchingText {
		t.Errorf("unexpected replies: %v", texts)
	}
}

// TestRouter_TextNotAddress tests the guidance reply
func TestRouter_TextNotAddress(t *testing.T) {
	for _, input := range []string{"hello", "256.1.1.1", "8.8.8", "abc.def.ghi.jkl"} {
		t.Run(input, func(t *testing.T) {
			lookuper := NewMockLookuper(okResult())
			resp := NewMockResponder()

			NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), text(input), resp)

			if len(lookuper.Calls()) != 0 {
				t.Error("expected no lookup for non-address text")
			}
			texts := resp.Texts()
			if len(texts) != 1 || texts[0] != format.NotAnAddressText {
				t.Errorf("expected guidance text, got %v", texts)
			}
		})
	}
}

// TestRouter_UnknownCommand tests commands outside the table
func TestRouter_UnknownCommand(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), command("8.8.8.8"), resp)

	if len(lookuper.Calls()) != 0 {
		t.Error("expected no lookup for unknown command")
	}
	if texts := resp.Texts(); len(texts) != 1 || texts[0] != format.UnknownCommandText {
		t.Errorf("expected unknown command text, got %v", texts)
	}
}

// TestRouter_LookupErrorIsAReply tests that classified failures are normal replies
func TestRouter_LookupErrorIsAReply(t *testing.T) {
	lookuper := NewMockLookuper(models.Failure(models.LookupError{Kind: models.ErrTimeout}))
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), text("8.8.8.8"), resp)

	texts := resp.Texts()
	if len(texts) != 2 {
		t.Fatalf("expected acknowledgment and error reply, got %v", texts)
	}
	if texts[1] != format.Error(&models.LookupError{Kind: models.ErrTimeout}) {
		t.Errorf("expected timeout text, got %q", texts[1])
	}
}

// TestRouter_PanicBoundary tests that a panicking lookup ends in an apology
func TestRouter_PanicBoundary(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	lookuper.Panic = "lookup exploded"
	resp := NewMockResponder()

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), text("8.8.8.8"), resp)

	texts := resp.Texts()
	if len(texts) != 2 {
		t.Fatalf("expected acknowledgment and apology, got %v", texts)
	}
	if texts[1] != format.ApologyText {
		t.Errorf("expected apology, got %q", texts[1])
	}
}

// TestRouter_SendFailureBoundary tests that a failed reply ends in an apology attempt
func TestRouter_SendFailureBoundary(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	resp := NewMockResponder()
	resp.FailOn[0] = true
	resp.Err = errors.New("telegram down")

	NewRouter(lookuper, nil, logger.Nop()).Handle(context.Background(), text("8.8.8.8"), resp)

	if len(lookuper.Calls()) != 0 {
		t.Error("expected no lookup after failed acknowledgment")
	}
	texts := resp.Texts()
	if len(texts) != 2 || texts[1] != format.ApologyText {
		t.Errorf("expected apology attempt, got %v", texts)
	}
}

// TestRouter_ApologyFailureDoesNotPanic tests the last line of defense
func TestRouter_ApologyFailureDoesNotPanic(t *testing.T) {
	resp := NewMockResponder()
	resp.FailOn[0] = true
	resp.FailOn[1] = true
	resp.Err = errors.New("telegram down")

	NewRouter(NewMockLookuper(okResult()), nil, logger.Nop()).Handle(context.Background(), command("help"), resp)

	if len(resp.Sent) != 2 {
		t.Errorf("expected help and apology attempts, got %d", len(resp.Sent))
	}
}

// TestRouter_Metrics tests the per-route counter
func TestRouter_Metrics(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	router := NewRouter(NewMockLookuper(okResult()), m, logger.Nop())

	router.Handle(context.Background(), text("hello"), NewMockResponder())
	router.Handle(context.Background(), text("hi"), NewMockResponder())
	router.Handle(context.Background(), command("ip"), NewMockResponder())

	if got := testutil.ToFloat64(m.MessagesTotal.WithLabelValues(RouteTextNotIP)); got != 2 {
		t.Errorf("expected 2 text_not_ip messages, got %v", got)
	}
	if got := testutil.ToFloat64(m.MessagesTotal.WithLabelValues(RouteIPNoArg)); got != 1 {
		t.Errorf("expected 1 ip_no_arg message, got %v", got)
	}
}

// TestRouter_Concurrent tests that messages don't share state
func TestRouter_Concurrent(t *testing.T) {
	lookuper := NewMockLookuper(okResult())
	router := NewRouter(lookuper, nil, logger.Nop())

	done := make(chan *MockResponder)
	for i := 0; i < 20; i++ {
		go func() {
			resp := NewMockResponder()
			router.Handle(context.Background(), text("8.8.8.8"), resp)
			done <- resp
		}()
	}

	for i := 0; i < 20; i++ {
		resp := <-done
		if len(resp.Texts()) != 2 {
			t.Errorf("expected 2 replies per message, got %d", len(resp.Texts()))
		}
	}
	if len(lookuper.Calls()) != 20 {
		t.Errorf("expected 20 lookups, got %d", len(lookuper.Calls()))
	}
}
