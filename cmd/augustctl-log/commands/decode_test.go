package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/augustctl/augustctl-go/internal/locksim"
	"github.com/augustctl/augustctl-go/pkg/capture"
	"github.com/augustctl/augustctl-go/pkg/frame"
	"github.com/augustctl/augustctl-go/pkg/lock"
	"github.com/augustctl/augustctl-go/pkg/log"
	"github.com/augustctl/augustctl-go/pkg/session"
)

var testKey = []byte{
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

func recordStatusSession(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.alog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	cfg := lock.DefaultConfig()
	cfg.OfflineKey = testKey
	cfg.OfflineKeyOffset = 2
	cfg.ResponseTimeout = time.Second
	cfg.ProtocolLogger = fl

	l, err := lock.New(locksim.New("sim-lock", testKey, 2), cfg)
	if err != nil {
		t.Fatalf("lock.New failed: %v", err)
	}
	ctx := context.Background()
	if err := l.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if _, err := l.Status(ctx); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if err := l.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	fl.Close()
	return path
}

func TestRunDecodeProtocolLog(t *testing.T) {
	path := recordStatusSession(t)

	var buf bytes.Buffer
	if err := RunDecode(path, testKey, &buf); err != nil {
		t.Fatalf("RunDecode failed: %v", err)
	}

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 frames, got %d:\n%s", len(lines), output)
	}
	if strings.Contains(output, "Checksum mismatch") {
		t.Errorf("unexpected checksum mismatch:\n%s", output)
	}
	if !strings.Contains(lines[0], "\tWRITE\tSECURE\t") || !strings.HasSuffix(lines[0], "KEY_EXCHANGE offset=2") {
		t.Errorf("unexpected first line: %s", lines[0])
	}
	if !strings.HasSuffix(lines[5], "GET_STATUS_RESPONSE LOCK_STATE=unlocked") {
		t.Errorf("unexpected status line: %s", lines[5])
	}
}

func TestRunDecodeWrongKeyFlagsChecksum(t *testing.T) {
	path := recordStatusSession(t)

	var buf bytes.Buffer
	if err := RunDecode(path, make([]byte, 16), &buf); err != nil {
		t.Fatalf("RunDecode failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Checksum mismatch for frame") {
		t.Errorf("expected checksum mismatch, got:\n%s", buf.String())
	}
}

func TestRunDecodeSniffer(t *testing.T) {
	sec := session.NewSecure()
	if err := sec.SetKey(testKey); err != nil {
		t.Fatal(err)
	}
	req := frame.NewSecure(frame.OpKeyExchange, 4)
	req.SetSecurePayload([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err := sec.Seal(&req); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "capture.tsv")
	content := "7\t18\t38\t" + hex.EncodeToString(req.Bytes()) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RunDecode(path, testKey, &buf); err != nil {
		t.Fatalf("RunDecode failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "7\tWRITE\tSECURE\t") || !strings.Contains(buf.String(), "KEY_EXCHANGE offset=4") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestRunDecodeBadKey(t *testing.T) {
	path := recordStatusSession(t)
	if err := RunDecode(path, []byte{1}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for short key")
	}
}

func TestRunPrefs(t *testing.T) {
	settings := `{"offlineKey":"00112233445566778899AABBCCDDEEFF","offlineKeyOffset":1}`
	ct := capture.EncryptPreferenceValue([]byte(settings))
	xml := `<map><string name="LockSettingsPreferences">` + strings.ToUpper(hex.EncodeToString(ct)) + `</string></map>`

	path := filepath.Join(t.TempDir(), "prefs.xml")
	if err := os.WriteFile(path, []byte(xml), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RunPrefs(path, &buf); err != nil {
		t.Fatalf("RunPrefs failed: %v", err)
	}
	if buf.String() != settings {
		t.Errorf("RunPrefs = %q, want %q", buf.String(), settings)
	}
}

func TestRunPrefsMissingFile(t *testing.T) {
	if err := RunPrefs(filepath.Join(t.TempDir(), "missing.xml"), &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}
