package handlers

// Provider aggregates the HTTP handlers.
type Provider struct {
	Voice *VoiceHandler
}

// NewProvider wires the handler set.
func NewProvider(voice *VoiceHandler) *Provider {
	return &Provider{Voice: voice}
}
