package narration

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegPlayer plays clips by piping a temp file through ffmpeg to an
// audio output device.
type FFmpegPlayer struct {
	// Format is the ffmpeg output format, e.g. "pulse" or "alsa".
	Format string
	// Device is the output target passed to ffmpeg.
	Device string
	// FFmpegPath overrides the ffmpeg binary.
	FFmpegPath string
	// Dir holds temp clip files. Empty uses os.TempDir.
	Dir string
}

// Play writes audio to a temp file and starts ffmpeg on it.
func (p *FFmpegPlayer) Play(audio []byte) (Handle, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio is empty")
	}
	file, err := os.CreateTemp(p.Dir, "kavita-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create clip: %w", err)
	}
	path := file.Name()
	if _, err := file.Write(audio); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write clip: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close clip: %w", err)
	}

	cmd := p.command(path)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	h := &ffmpegHandle{cmd: cmd, path: path, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

func (p *FFmpegPlayer) command(path string) *exec.Cmd {
	format := strings.TrimSpace(p.Format)
	if format == "" {
		format = "pulse"
	}
	device := strings.TrimSpace(p.Device)
	if device == "" {
		device = "default"
	}
	stream := ffmpeg.Input(path).
		Output(device, ffmpeg.KwArgs{"f": format}).
		GlobalArgs("-nostdin", "-loglevel", "error")
	if bin := strings.TrimSpace(p.FFmpegPath); bin != "" {
		stream = stream.SetFfmpegPath(bin)
	}
	return stream.Compile()
}

type ffmpegHandle struct {
	cmd         *exec.Cmd
	path        string
	done        chan struct{}
	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (h *ffmpegHandle) Done() <-chan struct{} { return h.done }

func (h *ffmpegHandle) Stop() {
	h.stopOnce.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

func (h *ffmpegHandle) Release() {
	h.releaseOnce.Do(func() { _ = os.Remove(h.path) })
}

func (h *ffmpegHandle) Source() string { return h.path }

// SilentPlayer discards audio but keeps the timing of a real clip, so
// reading state behaves the same without a sound device.
type SilentPlayer struct {
	// BytesPerSecond estimates clip length. Zero assumes 128 kbit/s MP3.
	BytesPerSecond int
}

// Play starts a silent clip lasting as long as the audio would.
func (p SilentPlayer) Play(audio []byte) (Handle, error) {
	rate := p.BytesPerSecond
	if rate <= 0 {
		rate = 16000
	}
	d := time.Duration(len(audio)) * time.Second / time.Duration(rate)
	h := &silentHandle{done: make(chan struct{})}
	h.timer = time.AfterFunc(d, h.finish)
	return h, nil
}

type silentHandle struct {
	done  chan struct{}
	once  sync.Once
	timer *time.Timer
}

func (h *silentHandle) finish() { h.once.Do(func() { close(h.done) }) }

func (h *silentHandle) Done() <-chan struct{} { return h.done }

func (h *silentHandle) Stop() {
	h.timer.Stop()
	h.finish()
}

func (h *silentHandle) Release() {}

func (h *silentHandle) Source() string { return "silent" }
