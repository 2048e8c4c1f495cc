package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/retouchlab/retouch"
)

type mockEditor struct {
	editFunc func(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error)
}

func (m *mockEditor) Edit(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error) {
	if m.editFunc != nil {
		return m.editFunc(ctx, img, instruction, cfg)
	}
	return &retouch.EditResult{}, nil
}

func (m *mockEditor) Models() []retouch.ModelInfo {
	return []retouch.ModelInfo{
		{
			Name:         "test-model",
			Provider:     "test-provider",
			APIModelName: "test-model-api",
			RateLimits:   retouch.RateLimits{RequestsPerMinute: 42},
		},
	}
}

func (m *mockEditor) Close() error { return nil }

func newTestHandler(t *testing.T, editor retouch.ImageEditor) http.Handler {
	t.Helper()
	srv := NewServer(Options{
		Editor: editor,
		Logger: zerolog.Nop(),
	})
	return srv.Handler()
}

// redPNG renders a 10x10 red PNG.
func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, decoded
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec, body := doJSON(t, handler, http.MethodPost, "/api/sessions", nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rec.Code)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("create session: missing id")
	}
	if body["phase"] != string(retouch.PhaseIdle) {
		t.Fatalf("new session phase = %v, want idle", body["phase"])
	}
	return id
}

func uploadImage(t *testing.T, handler http.Handler, id string, data []byte, filename string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	return doJSON(t, handler, http.MethodPost, "/api/sessions/"+id+"/image", buf.Bytes(), mw.FormDataContentType())
}

func generate(t *testing.T, handler http.Handler, id, instruction string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"instruction": instruction})
	return doJSON(t, handler, http.MethodPost, "/api/sessions/"+id+"/edits", payload, "application/json")
}

func TestEndToEnd_EditFlow(t *testing.T) {
	edited, err := retouch.EncodeBytes([]byte("blue-pixels"), "image/png")
	if err != nil {
		t.Fatal(err)
	}

	editor := &mockEditor{
		editFunc: func(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error) {
			if img.MIMEType != "image/png" {
				t.Errorf("editor received MIME type %q, want image/png", img.MIMEType)
			}
			if instruction != "make it blue" {
				t.Errorf("instruction = %q", instruction)
			}
			return &retouch.EditResult{Image: edited}, nil
		},
	}
	handler := newTestHandler(t, editor)
	id := createSession(t, handler)

	rec, body := uploadImage(t, handler, id, redPNG(t), "red.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: status %d: %v", rec.Code, body)
	}
	if body["phase"] != string(retouch.PhaseReady) {
		t.Fatalf("phase after upload = %v, want ready", body["phase"])
	}
	originalURI, _ := body["original_uri"].(string)
	if !strings.HasPrefix(originalURI, "data:image/png;base64,") {
		t.Fatalf("original_uri = %q, want a png data URI", originalURI)
	}

	rec, body = generate(t, handler, id, "make it blue")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d: %v", rec.Code, body)
	}
	if body["phase"] != string(retouch.PhaseSucceeded) {
		t.Fatalf("phase after generate = %v, want succeeded", body["phase"])
	}
	if got, want := body["result_uri"], edited.DataURI(); got != want {
		t.Errorf("result_uri = %v, want %v", got, want)
	}
}

func TestGenerate_NoImageReturned(t *testing.T) {
	editor := &mockEditor{
		editFunc: func(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error) {
			return nil, &retouch.NoImageReturnedError{}
		},
	}
	handler := newTestHandler(t, editor)
	id := createSession(t, handler)
	uploadImage(t, handler, id, redPNG(t), "red.png")

	rec, body := generate(t, handler, id, "make it blue")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d", rec.Code)
	}
	if body["phase"] != string(retouch.PhaseFailed) {
		t.Fatalf("phase = %v, want failed", body["phase"])
	}
	errMsg, _ := body["error"].(string)
	if !strings.Contains(errMsg, "no image") {
		t.Errorf("error %q does not mention the missing image", errMsg)
	}
}

func TestGenerate_Guards(t *testing.T) {
	handler := newTestHandler(t, &mockEditor{})
	id := createSession(t, handler)

	// No image yet.
	rec, _ := generate(t, handler, id, "make it blue")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("generate without image: status %d, want 422", rec.Code)
	}

	uploadImage(t, handler, id, redPNG(t), "red.png")

	// Empty instruction.
	rec, _ = generate(t, handler, id, "  ")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("generate with empty instruction: status %d, want 422", rec.Code)
	}
}

func TestGenerate_ConflictWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	edited, _ := retouch.EncodeBytes([]byte("blue-pixels"), "image/png")
	editor := &mockEditor{
		editFunc: func(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error) {
			close(entered)
			<-release
			return &retouch.EditResult{Image: edited}, nil
		},
	}
	handler := newTestHandler(t, editor)
	id := createSession(t, handler)
	uploadImage(t, handler, id, redPNG(t), "red.png")

	done := make(chan struct{})
	go func() {
		defer close(done)
		generate(t, handler, id, "make it blue")
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first generate never reached the editor")
	}

	rec, body := generate(t, handler, id, "make it green")
	if rec.Code != http.StatusConflict {
		t.Errorf("second generate: status %d, want 409 (%v)", rec.Code, body)
	}

	close(release)
	<-done
}

func TestUpload_ClearsPriorResult(t *testing.T) {
	edited, _ := retouch.EncodeBytes([]byte("blue-pixels"), "image/png")
	editor := &mockEditor{
		editFunc: func(ctx context.Context, img retouch.EncodedImage, instruction string, cfg *retouch.EditConfig) (*retouch.EditResult, error) {
			return &retouch.EditResult{Image: edited}, nil
		},
	}
	handler := newTestHandler(t, editor)
	id := createSession(t, handler)
	uploadImage(t, handler, id, redPNG(t), "red.png")
	generate(t, handler, id, "make it blue")

	rec, body := uploadImage(t, handler, id, redPNG(t), "red2.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("second upload: status %d", rec.Code)
	}
	if body["phase"] != string(retouch.PhaseReady) {
		t.Errorf("phase = %v, want ready", body["phase"])
	}
	if _, has := body["result_uri"]; has {
		t.Error("prior result should have been cleared")
	}
	if _, has := body["error"]; has {
		t.Error("prior error should have been cleared")
	}
}

func TestUnknownSession(t *testing.T) {
	handler := newTestHandler(t, &mockEditor{})

	rec, body := doJSON(t, handler, http.MethodGet, "/api/sessions/nope/", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404 (%v)", rec.Code, body)
	}
}

func TestModelsEndpoint(t *testing.T) {
	handler := newTestHandler(t, &mockEditor{})

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var models []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &models); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(models) != 1 || models[0]["name"] != "test-model" {
		t.Errorf("unexpected models payload: %v", models)
	}
}

func TestIndexServed(t *testing.T) {
	handler := newTestHandler(t, &mockEditor{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "retouch") {
		t.Error("page body missing application markup")
	}
}
