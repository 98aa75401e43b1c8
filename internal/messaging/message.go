package messaging

const (
	ContentTypeHeader = "content-type"
	ContentTypeJSON   = "application/json"
)

// Message is what producers publish: an opaque body plus the metadata
// consumers need to decode it.
type Message struct {
	Key         string
	Body        []byte
	ContentType string
}

// Delivery is a message as seen by a consumer handler.
type Delivery struct {
	Key         string
	Body        []byte
	ContentType string
	Topic       string
	Partition   int
	Offset      int64
}
