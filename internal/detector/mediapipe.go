package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown is how long the subprocess may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// responseTimeout bounds the wait for one response line.
const responseTimeout = 5 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// A subprocess that fails or stops answering is killed and started again on
// the next frame.
type MediaPipeDetector struct {
	config     Config
	script     string
	newCommand func() *exec.Cmd
	timeout    time.Duration

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findHandScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("hand_pose_service.py not found")
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}

	d := &MediaPipeDetector{
		config:  config,
		script:  scriptPath,
		timeout: responseTimeout,
	}
	d.newCommand = d.pythonCommand
	return d, nil
}

// Detect sends the frame to the subprocess and returns the recognized hands.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Observation, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	line, err := d.roundTrip(buf.GetBytes())
	if err != nil {
		return nil, err
	}
	return parseHands(line, d.config)
}

// roundTrip sends one encoded frame and reads one response line. Any pipe
// error or timeout kills the subprocess so the next call starts a fresh one.
func (d *MediaPipeDetector) roundTrip(data []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Frame wire format: 4 byte big-endian length, then JPEG bytes.
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))

	if _, err := d.stdin.Write(length[:]); err != nil {
		d.kill()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.kill()
		return nil, fmt.Errorf("write data: %w", err)
	}

	type response struct {
		line []byte
		err  error
	}
	ch := make(chan response, 1)
	stdout := d.stdout
	go func() {
		line, err := stdout.ReadBytes('\n')
		ch <- response{line, err}
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			d.kill()
			return nil, fmt.Errorf("read response: %w", r.err)
		}
		d.resetIdleTimer()
		return r.line, nil
	case <-timer.C:
		d.kill()
		return nil, fmt.Errorf("read response: no reply within %v", d.timeout)
	}
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) pythonCommand() *exec.Cmd {
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}
	return exec.Command(pythonPath, d.script, "--max-hands", fmt.Sprint(d.config.MaxHands))
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	cmd := d.newCommand()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start hand pose service: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

// kill stops a subprocess that can no longer be trusted to answer.
func (d *MediaPipeDetector) kill() {
	if !d.started {
		return
	}
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.shutdown()
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findHandScript() string {
	return firstExisting(
		"scripts/hand_pose_service.py",
		"../scripts/hand_pose_service.py",
		filepath.Join(executableDir(), "scripts/hand_pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/hand_pose_service.py"),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(executableDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	)
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand is one hand in the subprocess response. Score is the detection
// confidence of the whole hand.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      *float64    `json:"score,omitempty"`
}

// jsonPoint is a MediaPipe landmark. MediaPipe measures y from the top of
// the image; observations measure it from the bottom. Score is the joint's
// own confidence; the service sends 0 for joints outside the image.
type jsonPoint struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Score *float64 `json:"score,omitempty"`
}

// parseHands decodes one response line into observations. Hands and joints
// scored below config.MinConfidence are dropped, then at most
// config.MaxHands hands are kept.
func parseHands(line []byte, config Config) ([]Observation, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := response.Hands[:0]
	for _, h := range response.Hands {
		if h.Score != nil && *h.Score < config.MinConfidence {
			continue
		}
		hands = append(hands, h)
	}
	if config.MaxHands > 0 && len(hands) > config.MaxHands {
		hands = hands[:config.MaxHands]
	}

	result := make([]Observation, 0, len(hands))
	for _, h := range hands {
		obs := make(Observation, NumJoints)
		for i := 0; i < NumJoints && i < len(h.Points); i++ {
			p := h.Points[i]
			if p.Score != nil && *p.Score < config.MinConfidence {
				continue
			}
			obs[Joint(i)] = Point{X: p.X, Y: 1 - p.Y}
		}
		result = append(result, obs)
	}

	return result, nil
}
