package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/shop-agent/backend/internal/analytics"
	"github.com/shop-agent/backend/internal/chat"
	"github.com/shop-agent/backend/internal/ingestion"
	"github.com/shop-agent/backend/internal/vector/memory"
)

type fakeResolver struct {
	result *chat.Result
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context, sessionID, message string) (*chat.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRecorder struct {
	records []analytics.Record
}

func (f *fakeRecorder) Record(rec analytics.Record) {
	f.records = append(f.records, rec)
}

type fakeEmbedder struct{}

func (fakeEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func chatApp(resolver Resolver, recorder Recorder) *fiber.App {
	app := fiber.New()
	h := NewChatHandler(resolver, recorder)
	app.Post("/api/v1/chat", h.HandleChat)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHandleChat_ReturnsResolvedAnswer(t *testing.T) {
	resolver := &fakeResolver{result: &chat.Result{
		Answer:  "Shipping takes three days.",
		Sources: []string{"faq"},
	}}
	recorder := &fakeRecorder{}
	app := chatApp(resolver, recorder)

	status, body := postJSON(t, app, "/api/v1/chat", map[string]interface{}{
		"sessionId": "s1",
		"message":   "how fast do you ship",
	})

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["answer"] != "Shipping takes three days." {
		t.Errorf("unexpected answer: %v", body["answer"])
	}
	if body["sessionId"] != "s1" {
		t.Errorf("expected session id echoed, got %v", body["sessionId"])
	}

	if len(recorder.records) != 1 {
		t.Fatalf("expected 1 analytics record, got %d", len(recorder.records))
	}
	if !recorder.records[0].Success {
		t.Error("expected success recorded")
	}
}

func TestHandleChat_GeneratesSessionID(t *testing.T) {
	resolver := &fakeResolver{result: &chat.Result{Answer: "hi", Sources: []string{}}}
	app := chatApp(resolver, nil)

	status, body := postJSON(t, app, "/api/v1/chat", map[string]interface{}{
		"message": "hello",
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if sid, _ := body["sessionId"].(string); sid == "" {
		t.Error("expected a generated session id")
	}
}

func TestHandleChat_EmptyMessageIsBadRequest(t *testing.T) {
	resolver := &fakeResolver{err: chat.ErrEmptyMessage}
	app := chatApp(resolver, nil)

	status, _ := postJSON(t, app, "/api/v1/chat", map[string]interface{}{
		"sessionId": "s1",
		"message":   "",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestHandleChat_PipelineFailureRecordsFailure(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("boom")}
	recorder := &fakeRecorder{}
	app := chatApp(resolver, recorder)

	status, _ := postJSON(t, app, "/api/v1/chat", map[string]interface{}{
		"sessionId": "s1",
		"message":   "hello",
	})
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("expected a failed transaction recorded, got %+v", recorder.records)
	}
}

func TestFAQHandler_UploadAndDelete(t *testing.T) {
	store := memory.New()
	ingestor := ingestion.NewIngestor(store, fakeEmbedder{}, nil, 10, 2)
	h := NewFAQHandler(ingestor)

	app := fiber.New()
	app.Post("/api/v1/faq", h.HandleUpload)
	app.Delete("/api/v1/faq/:sourceId", h.HandleDelete)

	status, body := postJSON(t, app, "/api/v1/faq", map[string]interface{}{
		"sourceId": "returns-policy",
		"content":  "Returns are accepted within thirty days of delivery.",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if chunks, _ := body["chunks"].(float64); chunks < 1 {
		t.Errorf("expected at least one chunk, got %v", body["chunks"])
	}
	if store.Len() == 0 {
		t.Fatal("expected records in the store after upload")
	}

	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/faq/returns-policy", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store after delete, got %d records", store.Len())
	}
}

func TestFAQHandler_MissingFieldsRejected(t *testing.T) {
	ingestor := ingestion.NewIngestor(memory.New(), fakeEmbedder{}, nil, 10, 2)
	h := NewFAQHandler(ingestor)

	app := fiber.New()
	app.Post("/api/v1/faq", h.HandleUpload)

	status, _ := postJSON(t, app, "/api/v1/faq", map[string]interface{}{
		"sourceId": "doc",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}
