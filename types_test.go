package topicbus

import (
	"context"
	"errors"
	"testing"
)

func TestPriority_String(t *testing.T) {
	tests := []struct {
		priority Priority
		expected string
	}{
		{PriorityCritical, "critical"}, // 0
		{PriorityHigh, "high"},         // 100
		{PriorityNormal, "normal"},     // 200
		{PriorityLow, "low"},           // 300
		{Priority(-10), "critical"},    // -10 <= 0 -> critical
		{Priority(50), "high"},         // 0 < 50 <= 100 -> high
		{Priority(150), "normal"},      // 100 < 150 <= 200 -> normal
		{Priority(250), "low"},         // 200 < 250 -> low
		{Priority(400), "low"},         // 300 < 400 -> low
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.priority.String(); got != tt.expected {
				t.Errorf("Priority.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDeliveryMode_String(t *testing.T) {
	tests := []struct {
		mode     DeliveryMode
		expected string
	}{
		{DeliverySync, "sync"},
		{DeliveryAsync, "async"},
		{DeliveryMode(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.expected {
				t.Errorf("DeliveryMode.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHandlerFunc(t *testing.T) {
	called := false
	var receivedMsg Message

	handler := HandlerFunc(func(ctx context.Context, msg Message) error {
		called = true
		receivedMsg = msg
		return nil
	})

	err := handler.Handle(context.Background(), NewMessage("test.topic", "hello"))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if receivedMsg.Payload != "hello" {
		t.Errorf("expected payload 'hello', got %v", receivedMsg.Payload)
	}
}

func TestHandlerFunc_Error(t *testing.T) {
	expectedErr := errors.New("test error")

	handler := HandlerFunc(func(ctx context.Context, msg Message) error {
		return expectedErr
	})

	err := handler.Handle(context.Background(), NewMessage("test.topic", nil))

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestPayloadHandler(t *testing.T) {
	called := false
	var receivedPayload orderPayload

	handler := PayloadHandler(func(ctx context.Context, payload orderPayload) error {
		called = true
		receivedPayload = payload
		return nil
	})

	msg := NewMessage("orders.created", orderPayload{OrderID: "ord-7", Total: 99})
	err := handler.Handle(context.Background(), msg)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if receivedPayload.OrderID != "ord-7" {
		t.Errorf("expected OrderID 'ord-7', got %v", receivedPayload.OrderID)
	}
}

func TestPayloadHandler_TypeMismatch(t *testing.T) {
	called := false

	handler := PayloadHandler(func(ctx context.Context, payload orderPayload) error {
		called = true
		return nil
	})

	// Payload is a plain string, not orderPayload
	err := handler.Handle(context.Background(), NewMessage("orders.created", "wrong type"))

	if err != nil {
		t.Errorf("unexpected error for type mismatch: %v", err)
	}
	if called {
		t.Error("handler should not be called for type mismatch")
	}
}

func TestFilterFunc(t *testing.T) {
	filter := FilterFunc(func(msg Message) bool {
		p, ok := msg.Payload.(orderPayload)
		return ok && p.Total > 100
	})

	large := NewMessage("orders.created", orderPayload{Total: 500})
	small := NewMessage("orders.created", orderPayload{Total: 10})

	if !filter(large) {
		t.Error("filter should return true for large order")
	}
	if filter(small) {
		t.Error("filter should return false for small order")
	}
	if filter(NewMessage("orders.created", "not an order")) {
		t.Error("filter should return false for non-order payload")
	}
}

func BenchmarkHandlerFunc(b *testing.B) {
	handler := HandlerFunc(func(ctx context.Context, msg Message) error {
		return nil
	})
	ctx := context.Background()
	msg := NewMessage("bench.test", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = handler.Handle(ctx, msg)
	}
}

func BenchmarkPayloadHandler(b *testing.B) {
	handler := PayloadHandler(func(ctx context.Context, payload orderPayload) error {
		return nil
	})
	ctx := context.Background()
	msg := NewMessage("bench.test", orderPayload{OrderID: "ord-1"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = handler.Handle(ctx, msg)
	}
}
