package format

// Static replies. Markdown is only used where the text says so.
const (
	WelcomeText = `👋 Hi! I'm a bot that shows information about IP addresses.

📍 Send me an IP address and I'll tell you about it.

Examples:
• Just send an address: 8.8.8.8
• Or use the command: /ip 8.8.8.8

📍 Without an address I'll check my own current address.`

	HelpText = `📋 Available commands:

/start - Start working with the bot
/help - Show this message
/ip [address] - Get information about an IP address

📌 Or simply send an IP address as a message.

Examples:
8.8.8.8 - Google DNS
/ip 1.1.1.1 - Cloudflare DNS`

	// NotAnAddressText is sent with Markdown
	NotAnAddressText = "🤔 That doesn't look like an IP address.\n\n" +
		"📌 Send an IP address like: `8.8.8.8`\n" +
		"📌 Or use the command: `/ip 8.8.8.8`"

	FetchingText  = "🔄 Fetching information..."
	DetectingText = "🔍 Detecting my own IP address..."

	UnknownCommandText = "Unknown command. Type /help for available commands."
	UnauthorizedText   = "⛔ Unauthorized. Your user ID is not in the allow list."
	ApologyText        = "❌ An error occurred. Please try again later."
)
