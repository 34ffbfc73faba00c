package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExpoClient_Send(t *testing.T) {
	var received []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, time.Second)
	err := c.Send(context.Background(), Message{
		To:    "ExponentPushToken[abc]",
		Title: "Bill due",
		Body:  "Netflix is due today",
		Data:  map[string]any{"invoiceId": "inv-1"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("received %d messages, want 1", len(received))
	}
	msg := received[0]
	if msg.To != "ExponentPushToken[abc]" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Sound != "default" {
		t.Errorf("Sound = %q, want default", msg.Sound)
	}
	if msg.Data["invoiceId"] != "inv-1" {
		t.Errorf("Data = %v", msg.Data)
	}
}

func TestExpoClient_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, time.Second)
	if err := c.Send(context.Background(), Message{To: "x"}); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestExpoClient_SendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, 20*time.Millisecond)
	if err := c.Send(context.Background(), Message{To: "x"}); err == nil {
		t.Fatal("expected timeout error")
	}
}
