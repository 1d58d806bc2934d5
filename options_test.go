package infopulse

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	board, err := New("https://example.com")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.URL() != "https://example.com/api/info" {
		t.Errorf("URL() = %v, want %v", board.URL(), "https://example.com/api/info")
	}
	if board.ID() == "" {
		t.Error("ID() is empty")
	}
}

func TestNew_Defaults(t *testing.T) {
	board, err := New("http://localhost:3000")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.Interval() != 5*time.Second {
		t.Errorf("Interval() = %v, want %v", board.Interval(), 5*time.Second)
	}
	if board.Timeout() != 0 {
		t.Errorf("Timeout() = %v, want 0", board.Timeout())
	}
	if board.Overlap() != OverlapSkip {
		t.Errorf("Overlap() = %v, want %v", board.Overlap(), OverlapSkip)
	}
	if board.Port() != 0 {
		t.Errorf("Port() = %v, want 0", board.Port())
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	a, _ := New("http://localhost:3000")
	b, _ := New("http://localhost:3000")
	if a.ID() == b.ID() {
		t.Errorf("two boards share ID %q", a.ID())
	}
}

func TestNew_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr string
	}{
		{name: "plain", baseURL: "http://localhost:3000", want: "http://localhost:3000/api/info"},
		{name: "trailing slash", baseURL: "http://localhost:3000/", want: "http://localhost:3000/api/info"},
		{name: "with prefix", baseURL: "https://example.com/service", want: "https://example.com/service/api/info"},
		{name: "empty", baseURL: "", wantErr: "cannot be empty"},
		{name: "no scheme", baseURL: "localhost:3000", wantErr: "scheme"},
		{name: "ftp scheme", baseURL: "ftp://example.com", wantErr: "scheme"},
		{name: "no host", baseURL: "http://", wantErr: "host"},
		{name: "query", baseURL: "http://example.com?x=1", wantErr: "query"},
		{name: "unparseable", baseURL: "http://[::1", wantErr: "invalid base URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := New(tt.baseURL)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("New(%q) expected error, got nil", tt.baseURL)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("New(%q) error = %v, want error containing %q", tt.baseURL, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.baseURL, err)
			}
			if board.URL() != tt.want {
				t.Errorf("URL() = %v, want %v", board.URL(), tt.want)
			}
		})
	}
}

func TestWithInterval(t *testing.T) {
	board, err := New("https://example.com", WithInterval(30*time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.Interval() != 30*time.Second {
		t.Errorf("Interval() = %v, want %v", board.Interval(), 30*time.Second)
	}
}

func TestWithInterval_Invalid(t *testing.T) {
	tests := []time.Duration{0, -1 * time.Second}

	for _, d := range tests {
		_, err := New("https://example.com", WithInterval(d))
		if err == nil {
			t.Errorf("WithInterval(%v) expected error, got nil", d)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	board, err := New("https://example.com", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if board.Timeout() != 2*time.Second {
		t.Errorf("Timeout() = %v, want %v", board.Timeout(), 2*time.Second)
	}

	// zero disables the timeout
	if _, err := New("https://example.com", WithTimeout(0)); err != nil {
		t.Errorf("WithTimeout(0) error = %v", err)
	}
}

func TestWithTimeout_Negative(t *testing.T) {
	_, err := New("https://example.com", WithTimeout(-time.Second))
	if err == nil {
		t.Error("WithTimeout(-1s) expected error, got nil")
	}
}

func TestWithOverlap(t *testing.T) {
	for _, o := range []Overlap{OverlapSkip, OverlapAllow, OverlapCancel} {
		board, err := New("https://example.com", WithOverlap(o))
		if err != nil {
			t.Fatalf("WithOverlap(%v) error = %v", o, err)
		}
		if board.Overlap() != o {
			t.Errorf("Overlap() = %v, want %v", board.Overlap(), o)
		}
	}
}

func TestWithOverlap_Unknown(t *testing.T) {
	_, err := New("https://example.com", WithOverlap("queue"))
	if err == nil {
		t.Fatal("WithOverlap(queue) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown overlap policy") {
		t.Errorf("error = %v, want error containing 'unknown overlap policy'", err)
	}
}

func TestWithInfoPath(t *testing.T) {
	board, err := New("https://example.com", WithInfoPath("/status/info"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if board.URL() != "https://example.com/status/info" {
		t.Errorf("URL() = %v, want %v", board.URL(), "https://example.com/status/info")
	}
}

func TestWithInfoPath_Relative(t *testing.T) {
	_, err := New("https://example.com", WithInfoPath("api/info"))
	if err == nil {
		t.Error("WithInfoPath(api/info) expected error, got nil")
	}
}

func TestWithPort(t *testing.T) {
	board, err := New("https://example.com", WithPort(9090))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", board.Port(), 9090)
	}
}

func TestWithPort_Invalid(t *testing.T) {
	tests := []int{0, -1, 65536, 100000}

	for _, port := range tests {
		_, err := New("https://example.com", WithPort(port))
		if err == nil {
			t.Errorf("WithPort(%d) expected error, got nil", port)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	board, err := New("https://example.com", WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.logger != logger {
		t.Error("logger was not set correctly")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New("https://example.com", WithLogger(nil))
	if err == nil {
		t.Fatal("WithLogger(nil) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("error = %v, want error containing 'logger cannot be nil'", err)
	}
}

func TestWithLogger_DefaultsToSlogDefault(t *testing.T) {
	board, err := New("https://example.com")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if board.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
}

func TestWithUpdateCallback_NilIgnored(t *testing.T) {
	board, err := New("https://example.com", WithUpdateCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(board.callbacks) != 0 {
		t.Errorf("len(callbacks) = %d, want 0", len(board.callbacks))
	}
}

func TestOverlap_String(t *testing.T) {
	tests := []struct {
		overlap Overlap
		want    string
	}{
		{OverlapSkip, "skip"},
		{OverlapAllow, "allow"},
		{OverlapCancel, "cancel"},
	}

	for _, tt := range tests {
		if got := tt.overlap.String(); got != tt.want {
			t.Errorf("Overlap.String() = %v, want %v", got, tt.want)
		}
	}
}
