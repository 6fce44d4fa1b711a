package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeydtaylor/contentops/pkg/codec"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// KafkaConfig is the writer configuration.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	Headers      map[string]string
	BatchTimeout time.Duration

	TLS         bool
	CAFiles     []string
	ServerName  string
	ClientCert  string
	ClientKey   string
	TLSInsecure bool

	SASLMechanism string // SCRAM-SHA-256 | SCRAM-SHA-512
	SASLUsername  string
	SASLPassword  string
}

// Enabled reports whether brokers and a topic are set.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 && c.Topic != "" }

// KafkaConfigFromEnv reads KAFKA_BROKERS, KAFKA_TOPIC, KAFKA_CLIENT_ID,
// KAFKA_HEADERS, KAFKA_WRITER_BATCH_TIMEOUT_MS, KAFKA_TLS_* and KAFKA_SASL_*.
func KafkaConfigFromEnv() (KafkaConfig, error) {
	cfg := KafkaConfig{
		Brokers:       splitCSV(os.Getenv("KAFKA_BROKERS")),
		Topic:         strings.TrimSpace(os.Getenv("KAFKA_TOPIC")),
		ClientID:      envOr("KAFKA_CLIENT_ID", "contentops"),
		Headers:       parseKV(os.Getenv("KAFKA_HEADERS")),
		BatchTimeout:  time.Duration(envInt("KAFKA_WRITER_BATCH_TIMEOUT_MS", 50)) * time.Millisecond,
		TLS:           envBool("KAFKA_TLS_ENABLE") || os.Getenv("KAFKA_TLS_CA_FILES") != "",
		CAFiles:       splitCSV(os.Getenv("KAFKA_TLS_CA_FILES")),
		ServerName:    strings.TrimSpace(os.Getenv("KAFKA_TLS_SERVER_NAME")),
		ClientCert:    strings.TrimSpace(os.Getenv("KAFKA_TLS_CLIENT_CERT")),
		ClientKey:     strings.TrimSpace(os.Getenv("KAFKA_TLS_CLIENT_KEY")),
		TLSInsecure:   envBool("KAFKA_TLS_INSECURE"),
		SASLMechanism: strings.ToUpper(strings.TrimSpace(os.Getenv("KAFKA_SASL_MECHANISM"))),
		SASLUsername:  strings.TrimSpace(os.Getenv("KAFKA_SASL_USERNAME")),
		SASLPassword:  strings.TrimSpace(os.Getenv("KAFKA_SASL_PASSWORD")),
	}
	if _, err := cfg.mechanism(); err != nil {
		return KafkaConfig{}, err
	}
	return cfg, nil
}

func (c KafkaConfig) mechanism() (sasl.Mechanism, error) {
	var algo scram.Algorithm
	switch c.SASLMechanism {
	case "":
		return nil, nil
	case "SCRAM-SHA-256":
		algo = scram.SHA256
	case "SCRAM-SHA-512":
		algo = scram.SHA512
	default:
		return nil, fmt.Errorf("kafka: unsupported KAFKA_SASL_MECHANISM %q", c.SASLMechanism)
	}
	if c.SASLUsername == "" {
		return nil, fmt.Errorf("kafka: KAFKA_SASL_USERNAME required for %s", c.SASLMechanism)
	}
	return scram.Mechanism(algo, c.SASLUsername, c.SASLPassword)
}

func (c KafkaConfig) tlsConfig() (*tls.Config, error) {
	if !c.TLS {
		return nil, nil
	}
	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.TLSInsecure, // dev only
	}
	if len(c.CAFiles) > 0 {
		pool := x509.NewCertPool()
		for _, f := range c.CAFiles {
			pem, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("kafka: read CA %s: %w", f, err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("kafka: no certificates in %s", f)
			}
		}
		tc.RootCAs = pool
	}
	if c.ClientCert != "" && c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("kafka: client cert: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	return tc, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes each event as one JSON message keyed by subject.
type Kafka struct {
	w       messageWriter
	headers []kafka.Header
}

// NewKafka builds a writer; connections are opened lazily on first publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka: brokers and topic required")
	}
	mech, err := cfg.mechanism()
	if err != nil {
		return nil, err
	}
	tc, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
			TLS:      tc,
			SASL:     mech,
		},
	}
	return newKafka(w, cfg.Headers), nil
}

func newKafka(w messageWriter, headers map[string]string) *Kafka {
	k := &Kafka{w: w}
	for name, v := range headers {
		k.headers = append(k.headers, kafka.Header{Key: name, Value: []byte(v)})
	}
	return k
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	b, err := codec.JSONStrict.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.Type, err)
	}
	hdrs := make([]kafka.Header, 0, len(k.headers)+1)
	hdrs = append(hdrs, kafka.Header{Key: "type", Value: []byte(e.Type)})
	hdrs = append(hdrs, k.headers...)
	msg := kafka.Message{
		Key:     []byte(e.Subject),
		Value:   b,
		Headers: hdrs,
		Time:    e.At,
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
