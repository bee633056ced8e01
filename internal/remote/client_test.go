package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not configured", http.StatusServiceUnavailable, `{"error":"OpenAI API key not configured","code":"not_configured"}`, utils.ErrConfiguration},
		{"validation", http.StatusBadRequest, `{"error":"question is required","code":"validation_error"}`, utils.ErrValidation},
		{"unauthorized", http.StatusUnauthorized, `{"error":"missing or invalid token","code":"unauthorized"}`, utils.ErrAuthRequired},
		{"bad gateway", http.StatusBadGateway, `{"error":"AI service request failed","code":"remote_error"}`, utils.ErrRemoteService},
		{"plain text", http.StatusInternalServerError, `oops`, utils.ErrRemoteService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL).Chat(context.Background(), &models.ChatRequest{Question: "What is EMI?"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var remoteErr *Error
			if !errors.As(err, &remoteErr) || remoteErr.StatusCode != tt.status {
				t.Errorf("expected *Error with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestNetworkFailureIsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Summarize(context.Background(), &models.SummarizeRequest{DocumentID: "d", Text: "t"})
	if !errors.Is(err, utils.ErrRemoteService) {
		t.Errorf("expected ErrRemoteService, got %v", err)
	}
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := New(server.URL).Translate(context.Background(), &models.TranslateRequest{Text: "x", TargetLanguage: "hindi"})
	if !errors.Is(err, utils.ErrRemoteService) {
		t.Errorf("expected ErrRemoteService, got %v", err)
	}
}

func TestRequestsCarryTokenAndPaths(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.EscapedPath())
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing token on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/api/v1/auth/me":
			_ = json.NewEncoder(w).Encode(models.User{ID: "user-1"})
		case "/api/v1/storage/loan-documents/user-1/1700000000000.pdf":
			body, _ := io.ReadAll(r.Body)
			if string(body) != "%PDF" || r.Header.Get("Content-Type") != "application/pdf" {
				t.Errorf("unexpected upload body %q", body)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"bucket":"loan-documents","path":"user-1/1700000000000.pdf"}`))
		case "/api/v1/documents":
			if r.Method == http.MethodGet {
				_ = json.NewEncoder(w).Encode([]models.UploadedDocument{{ID: "doc-2"}, {ID: "doc-1"}})
				return
			}
			var req models.NewDocumentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.UploadedDocument{ID: "doc-1", FilePath: req.FilePath, Status: models.StatusUploaded})
		case "/api/v1/documents/doc-1":
			_ = json.NewEncoder(w).Encode(models.UploadedDocument{ID: "doc-1", Status: models.StatusProcessed})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL, WithToken(func() string { return "tok" }))
	ctx := context.Background()

	user, err := c.CurrentUser(ctx)
	if err != nil || user == nil || user.ID != "user-1" {
		t.Fatalf("CurrentUser = (%+v, %v)", user, err)
	}
	if err := c.Upload(ctx, "loan-documents", "user-1/1700000000000.pdf", []byte("%PDF"), "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	doc, err := c.InsertDocument(ctx, &models.NewDocumentRequest{FilePath: "user-1/1700000000000.pdf"})
	if err != nil || doc.Status != models.StatusUploaded {
		t.Fatalf("InsertDocument = (%+v, %v)", doc, err)
	}
	processed := models.StatusProcessed
	if doc, err = c.UpdateDocument(ctx, "doc-1", models.DocumentPatch{Status: &processed}); err != nil || doc.Status != processed {
		t.Fatalf("UpdateDocument = (%+v, %v)", doc, err)
	}
	docs, err := c.ListDocuments(ctx)
	if err != nil || len(docs) != 2 {
		t.Fatalf("ListDocuments = (%d, %v)", len(docs), err)
	}

	if len(seen) != 5 || seen[3] != "PATCH /api/v1/documents/doc-1" {
		t.Errorf("unexpected requests %v", seen)
	}
}

func TestCurrentUserWithoutToken(t *testing.T) {
	user, err := New("http://127.0.0.1:1").CurrentUser(context.Background())
	if user != nil || err != nil {
		t.Errorf("expected (nil, nil) without token, got (%+v, %v)", user, err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"missing or invalid token","code":"unauthorized"}`))
	}))
	defer server.Close()

	user, err = New(server.URL, WithToken(func() string { return "expired" })).CurrentUser(context.Background())
	if user != nil || err != nil {
		t.Errorf("expected (nil, nil) for rejected token, got (%+v, %v)", user, err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.EscapedPath() != "/api/v1/storage/loan-documents/user-1/my%20loan.pdf" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Object not found","code":"not_found"}`))
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	c := New(server.URL, WithToken(func() string { return "tok" }))
	data, err := c.Download(context.Background(), "loan-documents", "user-1/my loan.pdf")
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("Download: %q %v", data, err)
	}

	_, err = c.Download(context.Background(), "loan-documents", "user-1/other.pdf")
	var remoteErr *Error
	if !errors.As(err, &remoteErr) || remoteErr.Code != "not_found" {
		t.Errorf("expected not_found, got %v", err)
	}
}
