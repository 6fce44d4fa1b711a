package manifest

// HandlerType enumerates the supported API handler kinds.
type HandlerType string

const (
	// HandlerInproc runs a handler registered in process by name.
	HandlerInproc HandlerType = "inproc"
	// HandlerRelayPublish publishes the request body as a domain event.
	HandlerRelayPublish HandlerType = "relay.publish"
)
