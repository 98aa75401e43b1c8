package delivery

import (
	"fmt"
	"time"
)

type Channel string

const (
	ChannelHTTP  Channel = "http"
	ChannelQueue Channel = "queue"
)

// Failure records a notification that could not be delivered on one
// channel. It is reported and returned but never undoes the order.
type Failure struct {
	Channel  Channel
	OrderID  string
	At       time.Time
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s :: notify order %s via %s failed after %d attempt(s): %v",
		f.At.Format(time.RFC3339), f.OrderID, f.Channel, f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
