package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

const contentTypeJSON = "application/json"

// headerCarrier lets the otel propagator read and write kafka headers in place.
// Set replaces an existing key so a re-injected message never carries two
// traceparent values.
type headerCarrier struct{ hs *[]kafka.Header }

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.hs {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, val string) {
	for i := range *c.hs {
		if (*c.hs)[i].Key == key {
			(*c.hs)[i].Value = []byte(val)
			return
		}
	}
	*c.hs = append(*c.hs, kafka.Header{Key: key, Value: []byte(val)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.hs))
	for _, h := range *c.hs {
		keys = append(keys, h.Key)
	}
	return keys
}

// jsonHeaders are the headers of an outgoing JSON event: its content type plus
// the trace context of ctx.
func jsonHeaders(ctx context.Context) []kafka.Header {
	hs := []kafka.Header{{Key: "content-type", Value: []byte(contentTypeJSON)}}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{hs: &hs})
	return hs
}
