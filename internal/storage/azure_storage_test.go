package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBlobName(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		filename string
		want     string
	}{
		{"tray.jpg", "germination/rec-1/1700000000-tray.jpg"},
		{"../../etc/passwd", "germination/rec-1/1700000000-passwd"},
		{`C:\Users\me\day3.png`, "germination/rec-1/1700000000-day3.png"},
		{"", "germination/rec-1/1700000000-photo"},
	}

	for _, tt := range tests {
		if got := BlobName("rec-1", tt.filename, at); got != tt.want {
			t.Errorf("BlobName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestParseBlobURL(t *testing.T) {
	container, blobName, err := parseBlobURL("https://acct.blob.core.windows.net/germination/germination/rec-1/1700000000-tray.jpg")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if container != "germination" {
		t.Errorf("Expected container germination, got %s", container)
	}
	if blobName != "germination/rec-1/1700000000-tray.jpg" {
		t.Errorf("Unexpected blob name %s", blobName)
	}

	if _, _, err := parseBlobURL("https://acct.blob.core.windows.net/only-container"); err == nil {
		t.Error("Expected error for URL without blob name")
	}
}

func TestPlaceholderStore(t *testing.T) {
	url, err := PlaceholderStore{}.Upload(context.Background(), PhotoUpload{RecordID: "demo-record", DayNumber: 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if url != "/placeholder.svg?height=300&width=400&text=demo-record-Day-3" {
		t.Errorf("Unexpected placeholder %s", url)
	}
}

func TestAzureStorage_OwnsAndBlobURL(t *testing.T) {
	store, err := NewAzureStorage("acct", "dGVzdGtleQ==", "germination")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	url := store.blobURL("germination/rec-1/1-tray.jpg")
	if url != "https://acct.blob.core.windows.net/germination/germination/rec-1/1-tray.jpg" {
		t.Errorf("Unexpected blob URL %s", url)
	}
	if !store.Owns(url) {
		t.Error("Expected store to own its blob URL")
	}
	if store.Owns("https://example.com/tray.jpg") {
		t.Error("Expected foreign URL not to be owned")
	}
}

func TestNewAzureStorage_InvalidKey(t *testing.T) {
	if _, err := NewAzureStorage("acct", "not base64!", "germination"); err == nil {
		t.Error("Expected error for invalid account key")
	}
}

func TestRoutingFetcher_ForeignURLUsesHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngData)
	}))
	defer server.Close()

	store, err := NewAzureStorage("acct", "dGVzdGtleQ==", "germination")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := NewRoutingFetcher(store, newTestFetcher()).FetchImage(context.Background(), server.URL+"/tray.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(data) != len(pngData) {
		t.Errorf("Expected %d bytes, got %d", len(pngData), len(data))
	}
}
