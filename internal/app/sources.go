package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/source/factory"
)

// sourcesRegisteredMsg is sent when all configured sources have been
// registered with the loader.
type sourcesRegisteredMsg struct {
	count   int
	skipped []string
	err     error
}

// registerSources queries the store for configured sources and registers
// each enabled one with the loader, replacing any earlier registration.
// Sources whose adapter cannot be built (missing credential, bad
// settings) are skipped and reported.
func (m Model) registerSources() tea.Cmd {
	s := m.sources
	l := m.loader
	log := m.log

	return func() tea.Msg {
		if s == nil {
			return sourcesRegisteredMsg{}
		}

		sources, err := s.GetSources(context.Background())
		if err != nil {
			log.Error("failed to load sources", zap.Error(err))
			return sourcesRegisteredMsg{err: err}
		}

		l.Reset()

		var msg sourcesRegisteredMsg
		for _, src := range sources {
			if !src.Enabled {
				continue
			}

			adapter, err := factory.New(src, log)
			if err != nil {
				log.Warn("skipping source",
					zap.String("id", src.ID),
					zap.String("name", src.Name),
					zap.Error(err),
				)
				msg.skipped = append(msg.skipped, fmt.Sprintf("%s (%v)", src.Name, err))
				continue
			}

			l.RegisterSource(adapter, src)
			msg.count++
		}

		log.Info("sources registered",
			zap.Int("count", msg.count),
			zap.Int("skipped", len(msg.skipped)),
		)
		return msg
	}
}
