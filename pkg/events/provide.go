package events

import (
	"context"

	"go.uber.org/zap"
)

// FromEnv assembles the publisher from relay and Kafka env. With neither
// configured it returns Noop.
func FromEnv(ctx context.Context, log *zap.Logger) (Publisher, error) {
	var out Multi

	rc, err := RelayConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if len(rc.Targets) > 0 {
		r, err := NewRelay(ctx, rc)
		if err != nil {
			return nil, err
		}
		log.Info("events: electrician relay enabled", zap.Strings("targets", rc.Targets), zap.Bool("oauth", rc.OAuth()))
		out = append(out, r)
	}

	kc, err := KafkaConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if kc.Enabled() {
		k, err := NewKafka(kc)
		if err != nil {
			return nil, err
		}
		log.Info("events: kafka enabled", zap.Strings("brokers", kc.Brokers), zap.String("topic", kc.Topic))
		out = append(out, k)
	}

	switch len(out) {
	case 0:
		return Noop{}, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
