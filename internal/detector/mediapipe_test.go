package detector

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubService speaks the frame protocol without MediaPipe. In "once" mode it
// answers one frame and exits; in "hang" mode it reads a frame and never
// answers.
const stubService = `import struct, sys, time
mode = sys.argv[1]
while True:
    header = sys.stdin.buffer.read(4)
    if len(header) < 4:
        sys.exit(0)
    (n,) = struct.unpack(">I", header)
    sys.stdin.buffer.read(n)
    if mode == "hang":
        time.sleep(30)
    sys.stdout.write('{"hands":[{"points":[{"x":0.25,"y":0.25}],"handedness":"Right"}]}\n')
    sys.stdout.flush()
    if mode == "once":
        sys.exit(0)
`

// newStubDetector returns a detector whose subprocess is the stub service
// and a counter of how many times it was started.
func newStubDetector(t *testing.T, mode string) (*MediaPipeDetector, *int) {
	t.Helper()

	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	script := filepath.Join(t.TempDir(), "stub_service.py")
	if err := os.WriteFile(script, []byte(stubService), 0644); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	starts := 0
	d := &MediaPipeDetector{
		config:  DefaultConfig(),
		timeout: 2 * time.Second,
		newCommand: func() *exec.Cmd {
			starts++
			return exec.Command(python, script, mode)
		},
	}
	t.Cleanup(func() { d.Close() })
	return d, &starts
}

func (d *MediaPipeDetector) running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func TestMediaPipeDetector_RestartsAfterExit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}

	d, starts := newStubDetector(t, "once")
	frame := []byte("not really a jpeg")

	line, err := d.roundTrip(frame)
	if err != nil {
		t.Fatalf("first frame error = %v", err)
	}
	hands, err := parseHands(line, d.config)
	if err != nil || len(hands) != 1 {
		t.Fatalf("parseHands() = %v, %v", hands, err)
	}

	// The service has exited; this frame fails and the process is dropped.
	if _, err := d.roundTrip(frame); err == nil {
		t.Fatal("expected an error from the exited service")
	}
	if d.running() {
		t.Fatal("a failed service should not be kept")
	}

	if _, err := d.roundTrip(frame); err != nil {
		t.Fatalf("frame after failure error = %v, want a fresh service", err)
	}
	if *starts != 2 {
		t.Errorf("service started %d times, want 2", *starts)
	}
}

func TestMediaPipeDetector_ResponseTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}

	d, _ := newStubDetector(t, "hang")
	d.timeout = 200 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := d.roundTrip([]byte("frame"))
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "no reply") {
			t.Fatalf("roundTrip() error = %v, want a timeout", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("roundTrip blocked past its timeout")
	}

	if d.running() {
		t.Error("a service that stopped answering should be killed")
	}
}
