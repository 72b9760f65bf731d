// Package format renders lookup results and the static replies as user-facing text.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// Placeholder stands in for any field the geolocation service did not return
const Placeholder = "N/A"

// Result renders whichever side of the result is set
func Result(result models.LookupResult) string {
	if result.Err != nil {
		return Error(result.Err)
	}
	return Record(result.Record)
}

// Record renders the fixed multi-line summary (Telegram Markdown)
func Record(r *models.GeoRecord) string {
	if r == nil {
		r = &models.GeoRecord{}
	}

	var b strings.Builder
	b.WriteString("📍 *IP address information:*\n\n")
	fmt.Fprintf(&b, "• 🆔 *IP:* `%s`\n", orPlaceholder(r.IP))
	fmt.Fprintf(&b, "• 🏳️ *Country:* %s\n", str(r.Country))
	fmt.Fprintf(&b, "• 📍 *Region:* %s\n", str(r.Region))
	fmt.Fprintf(&b, "• 🏙️ *City:* %s\n", str(r.City))
	fmt.Fprintf(&b, "• 🌐 *Organization:* %s\n", str(r.Org))
	fmt.Fprintf(&b, "• 📍 *Coordinates:* %s, %s\n", num(r.Latitude), num(r.Longitude))
	fmt.Fprintf(&b, "• 🕐 *Timezone:* %s", str(r.Timezone))
	return b.String()
}

// Error renders one fixed sentence per error kind
func Error(e *models.LookupError) string {
	if e == nil {
		return Error(&models.LookupError{Kind: models.ErrUnknown, Detail: "empty result"})
	}

	switch e.Kind {
	case models.ErrConnection:
		return "❌ Connection error. Please check your internet connection."
	case models.ErrTimeout:
		return "⏰ Request timed out. The server did not respond in time."
	case models.ErrRemoteReported:
		return fmt.Sprintf("❌ Error: could not get information about IP %s", e.Address)
	default:
		return fmt.Sprintf("⚠️ An error occurred: %s", e.Detail)
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func str(s *string) string {
	if s == nil {
		return Placeholder
	}
	return orPlaceholder(*s)
}

// num renders the shortest exact decimal, keeping ".0" on whole numbers
func num(f *float64) string {
	if f == nil {
		return Placeholder
	}
	s := strconv.FormatFloat(*f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
