package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// SummarizeAfter and KeepLast configure every chat session the server
	// creates. See patterns/memory.
	SummarizeAfter int
	KeepLast       int
}
