package meetbot

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

// AudioRecorder captures system audio for one session. The session machine
// depends on this interface so tests can substitute a fake for the ffmpeg
// subprocess.
type AudioRecorder interface {
	Start() error
	Stop() error
	Path() string
	Upload(url string) error
}

// RecorderFactory creates a recorder for one session id.
type RecorderFactory func(id string) AudioRecorder

const recorderStopTimeout = 10 * time.Second

// FFmpegRecorder records the system audio loopback into an opus file using
// an ffmpeg subprocess.
type FFmpegRecorder struct {
	outputPath string
	cmd        *exec.Cmd
	started    bool
}

// NewFFmpegRecorder creates a recorder writing to <outputDir>/<id>.opus.
func NewFFmpegRecorder(outputDir, id string) *FFmpegRecorder {
	return &FFmpegRecorder{
		outputPath: filepath.Join(outputDir, id+".opus"),
	}
}

// Path returns the location of the recorded artifact.
func (r *FFmpegRecorder) Path() string {
	return r.outputPath
}

// Start launches the capture subprocess against the platform's audio
// loopback source.
func (r *FFmpegRecorder) Start() error {
	var args []string
	switch runtime.GOOS {
	case "darwin":
		args = []string{"-f", "avfoundation", "-i", ":0",
			"-acodec", "libopus", "-b:a", "128k", "-ac", "1", "-ar", "48000",
			r.outputPath}
	case "linux":
		args = []string{"-f", "pulse", "-i", "virtual-sink.monitor",
			"-acodec", "libopus", "-b:a", "256k", "-ac", "1", "-ar", "48000",
			r.outputPath}
	default:
		return fmt.Errorf("%w: unsupported platform %s", ErrRecordingProcess, runtime.GOOS)
	}

	if err := os.MkdirAll(filepath.Dir(r.outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: could not create output directory: %v", ErrRecordingProcess, err)
	}

	r.cmd = exec.Command("ffmpeg", args...)
	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordingProcess, err)
	}

	r.started = true
	log.Printf("[RECORDER]: Recording started: %s", r.outputPath)
	return nil
}

// Stop terminates the capture subprocess gracefully, escalating to a kill
// when ffmpeg does not exit within the bounded wait.
func (r *FFmpegRecorder) Stop() error {
	if !r.started || r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	r.started = false

	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("%w: terminate failed: %v", ErrRecordingProcess, err)
	}

	done := make(chan error, 1)
	go func() { done <- r.cmd.Wait() }()

	select {
	case <-done:
		log.Printf("[RECORDER]: Recording stopped: %s", r.outputPath)
		return nil
	case <-time.After(recorderStopTimeout):
		log.Printf("[RECORDER]: ffmpeg did not exit within %s, killing", recorderStopTimeout)
		if err := r.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("%w: kill failed: %v", ErrRecordingProcess, err)
		}
		<-done
		return nil
	}
}

// Upload transfers the artifact to a presigned destination URL. The caller
// treats failures as non-fatal to the already-ended session.
func (r *FFmpegRecorder) Upload(url string) error {
	file, err := os.Open(r.outputPath)
	if err != nil {
		return fmt.Errorf("%w: could not open artifact: %v", ErrUpload, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("%w: could not stat artifact: %v", ErrUpload, err)
	}

	req, err := http.NewRequest(http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", "audio/opus")
	req.ContentLength = info.Size()

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: destination returned %d", ErrUpload, resp.StatusCode)
	}

	log.Printf("[RECORDER]: Artifact uploaded: %s", r.outputPath)
	return nil
}
