package models

import "fmt"

// MessageKind tells a slash command apart from free text
type MessageKind int

const (
	KindText MessageKind = iota
	KindCommand
)

// IncomingMessage is one received update, already stripped of transport details.
// It lives for a single request/response cycle.
type IncomingMessage struct {
	ChatID      int64
	SenderID    int64
	Kind        MessageKind
	CommandName string   // without the leading slash or @botname suffix
	Args        []string // whitespace-separated command arguments, in order
	RawText     string
}

// OutgoingMessage is a reply for the conversation the message came from
type OutgoingMessage struct {
	Text     string
	Markdown bool
}

// IPQuery asks for the geolocation of Address.
// An empty Address means "resolve our own public address first".
type IPQuery struct {
	Address string
}

// IsSelf reports whether the query needs self-address discovery
func (q IPQuery) IsSelf() bool {
	return q.Address == ""
}

// GeoRecord is what the geolocation service knows about an address.
// Optional fields are nil when the service did not return them.
type GeoRecord struct {
	IP        string   `json:"ip"`
	Country   *string  `json:"country_name,omitempty"`
	Region    *string  `json:"region,omitempty"`
	City      *string  `json:"city,omitempty"`
	Org       *string  `json:"org,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  *string  `json:"timezone,omitempty"`
}

// ErrorKind is the tag of a LookupError
type ErrorKind string

const (
	ErrConnection     ErrorKind = "connection"
	ErrTimeout        ErrorKind = "timeout"
	ErrRemoteReported ErrorKind = "remote_reported"
	ErrUnknown        ErrorKind = "unknown"
)

// LookupError is a classified lookup failure.
// Address is set for ErrRemoteReported, Detail for ErrUnknown.
type LookupError struct {
	Kind    ErrorKind
	Address string
	Detail  string
}

// Error implements error so failures can be attached to log events
func (e *LookupError) Error() string {
	switch e.Kind {
	case ErrRemoteReported:
		return fmt.Sprintf("remote service reported an error for %s", e.Address)
	case ErrUnknown:
		return fmt.Sprintf("lookup failed: %s", e.Detail)
	default:
		return string(e.Kind)
	}
}

// LookupResult carries exactly one of Record or Err
type LookupResult struct {
	Record *GeoRecord
	Err    *LookupError
}

// OK reports whether the lookup produced a record
func (r LookupResult) OK() bool {
	return r.Err == nil && r.Record != nil
}

// Success wraps a record into a result
func Success(record *GeoRecord) LookupResult {
	return LookupResult{Record: record}
}

// Failure wraps a classified error into a result
func Failure(err LookupError) LookupResult {
	return LookupResult{Err: &err}
}
