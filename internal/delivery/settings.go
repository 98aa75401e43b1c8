package delivery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	EnvServiceBusConnectionString = "SERVICE_BUS_CONNECTION_STRING"
	EnvQueueName                  = "QUEUE_NAME"
	EnvDeliveryOrderProcessorURL  = "DELIVERY_ORDER_PROCESSOR_URL"
)

var ErrMissingSetting = errors.New("missing order processing setting")

// Settings are the order processing options. ServiceBusConnectionString is
// the comma separated broker list of the durable queue.
type Settings struct {
	ServiceBusConnectionString string
	QueueName                  string
	DeliveryOrderProcessorURL  string
}

func LoadSettings(getenv func(string) string) (Settings, error) {
	s := Settings{
		ServiceBusConnectionString: getenv(EnvServiceBusConnectionString),
		QueueName:                  getenv(EnvQueueName),
		DeliveryOrderProcessorURL:  getenv(EnvDeliveryOrderProcessorURL),
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	var missing []string
	if len(s.Brokers()) == 0 {
		missing = append(missing, EnvServiceBusConnectionString)
	}
	if strings.TrimSpace(s.QueueName) == "" {
		missing = append(missing, EnvQueueName)
	}
	if strings.TrimSpace(s.DeliveryOrderProcessorURL) == "" {
		missing = append(missing, EnvDeliveryOrderProcessorURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	u, err := url.Parse(s.DeliveryOrderProcessorURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q", EnvDeliveryOrderProcessorURL, s.DeliveryOrderProcessorURL)
	}
	return nil
}

func (s Settings) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(s.ServiceBusConnectionString, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
