package session

import (
	"context"
	"time"

	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
)

// schedule looks up the runtime of pb in the background and arms the
// autoplay timer, unless another play or a close happened meanwhile.
func (m *Manager) schedule(ctx context.Context, profileID string, gen uint64, pb *Playback) {
	ctx = context.WithoutCancel(ctx)
	m.pending.Go(func() {
		log := logging.Ctx(ctx).With().Str("component", "autoplay").Str("title", pb.Title).Logger()

		var (
			minutes int
			err     error
			grace   = movieGrace
		)
		if pb.Kind == models.KindMovie {
			minutes, err = m.runtimes.MovieRuntime(ctx, pb.ID)
		} else {
			grace = episodeGrace
			minutes, err = m.runtimes.EpisodeRuntime(ctx, pb.ID, pb.Episode.Season, pb.Episode.Episode)
		}
		if err != nil {
			log.Warn().Err(err).Msg("runtime lookup failed")
			return
		}
		if minutes <= 0 {
			log.Debug().Msg("no runtime available")
			return
		}
		delay := time.Duration(minutes)*time.Minute + grace

		s := m.get(profileID)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen || !s.autoplay {
			return
		}
		s.timer = m.after(delay, func() { m.fire(ctx, profileID, gen) })
		log.Debug().Dur("delay", delay).Msg("autoplay armed")
	})
}

// fire runs when the playing title should have ended. Shows advance to the
// next episode; movies stop.
func (m *Manager) fire(ctx context.Context, profileID string, gen uint64) {
	s := m.get(profileID)
	s.mu.Lock()
	if s.gen != gen || !s.autoplay {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	playing := s.playing
	s.mu.Unlock()

	log := logging.Ctx(ctx)
	if playing == nil || playing.Kind != models.KindTV {
		log.Info().Msg("movie autoplay timer fired")
		return
	}
	pb, err := m.NextEpisode(ctx, profileID)
	if err != nil {
		log.Warn().Err(err).Msg("autoplay next episode")
		return
	}
	log.Info().Str("title", pb.Title).Msg("autoplay advanced to next episode")
}
