package prompt

import "strings"

// ProviderRequest is a provider-shaped view of a message sequence. Exactly
// one of the three layouts is populated, depending on the adapter:
// chat-style Messages, System + remaining Messages, or a flattened Input
// string for structured-input protocols.
type ProviderRequest struct {
	System   string
	Messages []Message
	Input    string
}

type adapterFunc func(msgs []Message) ProviderRequest

// Adapters are table-driven per provider rather than branched at call sites.
var adapters = map[string]adapterFunc{
	"openai":    adaptInputText,
	"anthropic": adaptSystemField,
	"deepseek":  adaptChat,
	"mock":      adaptChat,
}

// AdaptForProvider reshapes a role-tagged message sequence into the given
// provider's request structure. Unknown providers get the plain chat shape.
func AdaptForProvider(provider string, msgs []Message) ProviderRequest {
	fn, ok := adapters[strings.ToLower(provider)]
	if !ok {
		fn = adaptChat
	}
	return fn(msgs)
}

func adaptChat(msgs []Message) ProviderRequest {
	return ProviderRequest{Messages: msgs}
}

// adaptSystemField extracts the system turn into its own field; the message
// list carries only the remaining turns.
func adaptSystemField(msgs []Message) ProviderRequest {
	var out ProviderRequest
	for _, m := range msgs {
		if m.Role == RoleSystem && out.System == "" {
			out.System = m.Content
			continue
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}

// adaptInputText flattens the whole sequence into a single input string for
// structured-input protocols, keeping turn order.
func adaptInputText(msgs []Message) ProviderRequest {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return ProviderRequest{Input: strings.Join(parts, "\n\n")}
}
