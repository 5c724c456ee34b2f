package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"voiceptt/internal/domain"
)

// FFPlayPlayer plays synthesized replies through ffplay. A new reply replaces
// the one still playing.
type FFPlayPlayer struct {
	command string

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewFFPlayPlayer(command string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlayPlayer{command: command}
}

func (p *FFPlayPlayer) Play(ctx context.Context, audio domain.AudioResource) error {
	if len(audio.Data) == 0 {
		return errors.New("no audio to play")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.Stop()

	playCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(playCtx, p.command,
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(audio.Data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start %s: %w", p.command, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		cancel()
		if err != nil {
			return fmt.Errorf("player exited: %w: %s", err, stringsTrimSpaceSafe(stderr.String()))
		}
		return nil
	case <-time.After(startupGrace):
	}

	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		<-waitErr
		cancel()
	}()
	return nil
}

// Stop interrupts the reply currently playing, if any.
func (p *FFPlayPlayer) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
