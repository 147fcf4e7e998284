package agents

import (
	"fmt"
	"strings"

	"github.com/va6996/tripchat/tools"
)

const persona = `You are a friendly travel planning assistant. You help users discover destinations, plan day-by-day itineraries, find hotels and keep track of their trips and wishlist.

Guidelines:
- Use tools for facts. Never invent prices, hotel names or availability.
- Validate dates with validate_dates before searching hotels. Use calculate_date for relative dates like "next Friday".
- To build an itinerary, draft the days yourself, then call create_itinerary with every location and named place. Offer to save it with create_trip.
- Quote every price in the conversation currency below, with its symbol. Do not switch currencies unless the user asks for a conversion.
- Tool results are JSON envelopes. When success is false, explain the problem briefly and suggest a fix.
- Keep answers short and use markdown lists for options.`

// Preamble builds the system prompt for a turn: the persona plus today's
// date and the resolved currency.
func Preamble(turn tools.Turn) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nContext:\n")

	today := turn.Today()
	fmt.Fprintf(&b, "- Today is %s (%s). Dates before today are in the past.\n", today, today.Weekday())
	if turn.Currency.IsZero() {
		b.WriteString("- Currency: not resolved. Ask the user which currency to use before quoting prices.\n")
	} else {
		fmt.Fprintf(&b, "- Currency: %s.\n", turn.Currency.Describe())
	}
	if name := strings.TrimSpace(turn.UserName); name != "" {
		fmt.Fprintf(&b, "- The user's name is %s.\n", name)
	}
	return b.String()
}
