package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry/mock"
	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
)

// stubEmbedder returns a fixed embedding for any image.
type stubEmbedder struct {
	embedding []float32
	err       error
}

func (s *stubEmbedder) ExtractFace(ctx context.Context, image []byte) ([]float32, error) {
	return s.embedding, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDetails() registry.VisitorDetails {
	return registry.VisitorDetails{
		Name:         "Jane Visitor",
		Gender:       "female",
		Email:        "jane@example.com",
		Phone:        "555123456",
		Address:      "12 Long Street, Springfield",
		Purpose:      "Quarterly review meeting",
		PersonToMeet: "John Host",
		PersonEmail:  "john.host@example.com",
		PersonPhone:  "555654321",
		Location:     "Building A",
	}
}

func newScanHandler(store *mock.Store, embedder Embedder) *ScanHandler {
	engine := resolve.NewEngine(store, facematch.NewMatcher(0.60), resolve.Options{Logger: discardLogger()})
	return NewScanHandler(engine, embedder, discardLogger())
}

func scanBody(t *testing.T, details *registry.VisitorDetails) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(scanRequest{
		Image:   base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
		Details: details,
	})
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func decodeOutcome(t *testing.T, recorder *httptest.ResponseRecorder) resolve.Outcome {
	t.Helper()
	var outcome resolve.Outcome
	if err := json.Unmarshal(recorder.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("failed to unmarshal outcome: %v", err)
	}
	return outcome
}

func TestScan_ExitForPresentVisitor(t *testing.T) {
	store := mock.NewStore()
	store.Seed(registry.NewVisitor{
		FaceID:      "face-1",
		Embedding:   []float32{1, 0, 0, 0},
		Details:     testDetails(),
		CheckInTime: time.Now(),
	})
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionExit {
		t.Errorf("expected exit, got %s", outcome.Action)
	}
}

func TestScan_NeedDetailsForUnknownFace(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{0, 1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionNeedDetails {
		t.Errorf("expected need_details, got %s", outcome.Action)
	}
}

func TestScan_EntryWithDetails(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{0, 1, 0, 0}})

	details := testDetails()
	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, &details))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionEntry {
		t.Errorf("expected entry, got %s", outcome.Action)
	}

	count, _ := store.CountPresent(context.Background())
	if count != 1 {
		t.Errorf("expected 1 present record, got %d", count)
	}
}

func TestScan_InvalidDetailsIs422(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{0, 1, 0, 0}})

	details := testDetails()
	details.Email = "not-an-email"
	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, &details))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
}

func TestScan_NoFaceIs400(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: nil})

	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionNoFace {
		t.Errorf("expected no_face action, got %s", outcome.Action)
	}
}

func TestScan_EmbedderFailureIs500(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{err: errors.New("service down")})

	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
}

func TestScan_BadBase64Is400(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	body := bytes.NewBufferString(`{"image": "!!not-base64!!"}`)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

func TestScan_InvalidJSONIs400(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewBufferString("{broken"))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

func TestCheckIn_AlwaysEnrolls(t *testing.T) {
	store := mock.NewStore()
	// A present visitor with the same face exists; /checkin must still
	// create a new record instead of checking the old one out.
	store.Seed(registry.NewVisitor{
		FaceID:      "face-1",
		Embedding:   []float32{1, 0, 0, 0},
		Details:     testDetails(),
		CheckInTime: time.Now(),
	})
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	details := testDetails()
	req := httptest.NewRequest(http.MethodPost, "/checkin", scanBody(t, &details))
	recorder := httptest.NewRecorder()
	handler.CheckIn(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionEntry {
		t.Errorf("expected entry, got %s", outcome.Action)
	}

	count, _ := store.CountPresent(context.Background())
	if count != 2 {
		t.Errorf("expected 2 present records, got %d", count)
	}
}

func TestCheckIn_MissingDetailsIs422(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/checkin", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.CheckIn(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
}

func TestExit_DepartsPresentVisitor(t *testing.T) {
	store := mock.NewStore()
	store.Seed(registry.NewVisitor{
		FaceID:      "face-1",
		Embedding:   []float32{1, 0, 0, 0},
		Details:     testDetails(),
		CheckInTime: time.Now(),
	})
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/exit", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Exit(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionExit {
		t.Errorf("expected exit, got %s", outcome.Action)
	}
}

func TestExit_UnrecognizedIs404(t *testing.T) {
	store := mock.NewStore()
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{0, 1, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/exit", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Exit(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", recorder.Code)
	}
	outcome := decodeOutcome(t, recorder)
	if outcome.Action != resolve.ActionNotRecognized {
		t.Errorf("expected not_recognized, got %s", outcome.Action)
	}
}

func TestScan_StoreFailureIs500(t *testing.T) {
	store := mock.NewStore()
	store.SnapshotError = errors.New("connection refused")
	handler := newScanHandler(store, &stubEmbedder{embedding: []float32{1, 0, 0, 0}})

	req := httptest.NewRequest(http.MethodPost, "/scan", scanBody(t, nil))
	recorder := httptest.NewRecorder()
	handler.Scan(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
}
