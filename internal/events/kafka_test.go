package events_test

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"educonnect/placement-service/internal/events"
	"educonnect/placement-service/internal/logging"
)

func TestKafkaPublisher_DeliveryFailuresAreLogged(t *testing.T) {
	msgs := []kafka.Message{
		{Key: []byte("application:a1"), Headers: []kafka.Header{{Key: "type", Value: []byte(events.TypeApplicationCreated)}}},
		{Key: []byte("selection:s1")},
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"delivered", nil, 0},
		{"broker down", errors.New("dial tcp: connection refused"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			p := events.NewKafkaPublisher([]string{"127.0.0.1:9092"}, "placement.events", logging.FromZap(zap.New(core)))
			t.Cleanup(func() { _ = p.Close() })

			events.Delivered(p, msgs, tt.err)

			got := logs.FilterMessage("kafka delivery failed").All()
			if len(got) != tt.want {
				t.Fatalf("logged %d delivery failures, want %d", len(got), tt.want)
			}
			if tt.want > 0 {
				f := got[0].ContextMap()
				if f["key"] != "application:a1" || f["type"] != events.TypeApplicationCreated || f["topic"] != "placement.events" {
					t.Errorf("log fields = %v", f)
				}
			}
		})
	}
}
