// Package responder is the fallback response generator: a stateless pattern
// matcher over inbound text, consulted whenever the booking dialogue has no
// step or action matching the payload.
package responder

import (
	"fmt"
	"regexp"
	"strings"
)

// Exhibits lists the museum's 3D exhibits, matched by name in user messages.
var Exhibits = []string{
	"Dinosaur Sculpture", "Phoenix Bird", "Wooden Bicycle", "Dodo Bird",
	"Black & White TV", "Lion Skull", "Nefertiti Bust", "Exakta Camera",
	"Arrau Turtle", "Amenemhat III", "Egyptian Coffins", "Daoist Immortal",
	"Roza Loewenfeld Bust", "Durga Goddess (10th Century)",
}

type pattern struct {
	re       *regexp.Regexp
	response string
}

// Patterns are checked in order; the first match wins.
var patterns = []pattern{
	{
		regexp.MustCompile(`\b(?:hello|hi|hey|greetings)\b`),
		"Hello! I'm your MuseumHub assistant. I can help you with booking tickets, exhibit information, time slots and availability, and museum policies. What would you like to know?",
	},
	{
		regexp.MustCompile(`book.*ticket|how.*book|reserve.*ticket|buy.*ticket|i.*want.*book|need.*ticket`),
		"I can help you book a ticket! Tell me which date you'd like to visit (e.g. 'tomorrow' or '2024-12-20'), pick a time slot, tell me how many visitors, and I'll create the booking for you. Note: you need to be logged in to complete bookings.",
	},
	{
		regexp.MustCompile(`time.*slot|available.*time|when.*open|hours|timing`),
		"We offer 6 time slots daily: 9AM–10AM (20 visitors), 10AM–11AM (25), 11AM–12PM (25), 1PM–2PM (30), 2PM–3PM (30), 3PM–4PM (20). The museum is open daily; check real-time availability on the calendar page.",
	},
	{
		regexp.MustCompile(`availability|check.*available|slot.*available|is.*available|what.*available`),
		"I can check availability for you. Just tell me the date: 'check availability for tomorrow' or 'what's available on 2024-12-20'. I'll show you the remaining spots per slot.",
	},
	{
		regexp.MustCompile(`exhibit|exhibits|what.*see|what.*view|collection|artifacts|items|models`),
		fmt.Sprintf("We have %d amazing 3D exhibits, from the Nefertiti Bust and Egyptian Coffins to the Dinosaur Sculpture and the Dodo Bird. Visit the 'Explore Exhibits' page to view them in 3D!", len(Exhibits)),
	},
	{
		regexp.MustCompile(`price|pricing|cost|fee|how.*much|ticket.*cost`),
		"Ticket pricing: standard ticket Rs 100 per person. Children under 18 are not allowed (museum policy). Group bookings use the same rate. All bookings include access to all exhibits.",
	},
	{
		regexp.MustCompile(`cancel.*booking|cancel.*ticket|how.*cancel`),
		"To cancel your booking: log in, go to 'My Bookings', find your booking and click 'Cancel'. Cancellations must be made within 48 hours of booking to be eligible.",
	},
	{
		regexp.MustCompile(`policy|policies|guidelines|rules|terms|conditions|refund`),
		"Museum policies: visitors must be 18 or older to book; tickets can be cancelled within 48 hours of booking; refunds are not available after a missed visit; each time slot has limited capacity, so book early.",
	},
	{
		regexp.MustCompile(`register|sign.*up|create.*account|new.*user|account`),
		"To create an account, click 'Register', choose a username and password, and submit. After registering you can book tickets, view your bookings and cancel bookings.",
	},
	{
		regexp.MustCompile(`login|sign.*in|log.*in`),
		"To log in, click 'Login' and enter your username and password. After logging in you'll have access to ticket booking and your booking history.",
	},
	{
		regexp.MustCompile(`help|support|assistance|guide`),
		"I'm here to help! Ask me about the ticket booking process, exhibit information, time slot availability, museum policies, or account management.",
	},
	{
		regexp.MustCompile(`bye|goodbye|see.*you|thanks|thank.*you`),
		"You're welcome! If you need any more help, just come back and chat with me. I'm here 24/7. Enjoy your visit to MuseumHub!",
	},
	{
		regexp.MustCompile(`contact|email|phone|address|reach|get.*touch`),
		"For additional support, use this chat anytime (24/7) or visit the 'Contact' page for more options.",
	},
}

const defaultResponse = "I'm not sure I understood that. I can help you with booking tickets ('How do I book a ticket?'), exhibits ('What exhibits do you have?'), time slots, or policies. Try asking one of those, or rephrase your question."

const emptyResponse = "Please ask me a question! I can help with booking tickets, exhibits, and more."

// GenerateResponse maps inbound text to a canned reply. Pure function: no
// state, no side effects.
func GenerateResponse(message string) string {
	message = strings.ToLower(strings.TrimSpace(message))
	if message == "" {
		return emptyResponse
	}

	for _, exhibit := range Exhibits {
		if strings.Contains(message, strings.ToLower(exhibit)) {
			return fmt.Sprintf("Great! We have the '%s' in our collection. You can view it in stunning 3D detail on our 'Explore Exhibits' page: rotate it 360 degrees, zoom in for details, and view it from different angles.", exhibit)
		}
	}

	for _, p := range patterns {
		if p.re.MatchString(message) {
			return p.response
		}
	}
	return defaultResponse
}
