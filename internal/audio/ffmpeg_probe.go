package audio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voiceptt/internal/domain"
)

// FFMPEGProbe reports which encodings the local ffmpeg build can record.
type FFMPEGProbe struct {
	command string

	once     sync.Once
	muxers   map[string]bool
	encoders map[string]bool
	err      error
}

func NewFFMPEGProbe(command string) *FFMPEGProbe {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGProbe{command: command}
}

func (p *FFMPEGProbe) IsTypeSupported(enc domain.EncodingDescriptor) (bool, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return false, p.err
	}
	if enc.Container == "" || !p.muxers[enc.Container] {
		return false, nil
	}
	if enc.Codec == "" {
		return true, nil
	}
	return p.encoders[encoderName(enc.Codec)], nil
}

func (p *FFMPEGProbe) load() {
	muxers, err := p.list("-muxers")
	if err != nil {
		p.err = err
		return
	}
	encoders, err := p.list("-encoders")
	if err != nil {
		p.err = err
		return
	}
	p.muxers = parseCapabilityList(muxers)
	p.encoders = parseCapabilityList(encoders)
}

func (p *FFMPEGProbe) list(flag string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.command, "-hide_banner", flag).Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg %s: %w", flag, err)
	}
	return string(out), nil
}

// parseCapabilityList reads the name column of `ffmpeg -muxers` or
// `ffmpeg -encoders` output. Entries start after the dashed separator line.
func parseCapabilityList(output string) map[string]bool {
	names := make(map[string]bool)
	inTable := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !inTable {
			if strings.Trim(line, "-") == "" {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			names[name] = true
		}
	}
	return names
}
