package sound

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// Player plays alarm presets on the local audio device. The oto context
// is created lazily on the first sound and shared afterwards.
type Player struct {
	sampleRate int
	logger     *slog.Logger

	once    sync.Once
	ctx     *oto.Context
	initErr error

	mu sync.Mutex
}

func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{sampleRate: SampleRate, logger: logger}
}

func (p *Player) init() error {
	p.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   p.sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			p.initErr = fmt.Errorf("audio context: %w", err)
			return
		}
		<-ready
		p.ctx = ctx
		p.logger.Info("audio context initialized", "sample_rate", p.sampleRate)
	})
	return p.initErr
}

// PlaySound blocks until the preset finished playing or ctx is done.
// Sounds never overlap.
func (p *Player) PlaySound(ctx context.Context, id domain.SoundID) error {
	pcm, err := Synthesize(id, p.sampleRate)
	if err != nil {
		return err
	}
	if err := p.init(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	defer func() { _ = player.Close() }()

	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}
