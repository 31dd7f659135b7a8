package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

const connectTimeout = 5 * time.Second

// service mirrors stored daily price aggregates to an MQTT broker as
// retained per-commodity state topics, for home-automation consumers
// that chart or act on the day-ahead rates.
type service struct {
	client paho_mqtt.Client
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client: client,
	}
}

// Connect blocks until the broker accepts the session or the dial
// window elapses. Called once at startup before the service is
// registered as a publisher.
func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(connectTimeout)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}
