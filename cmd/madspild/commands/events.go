package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	natsadapter "github.com/samirrijal/madspild/internal/adapters/nats"
	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/pkg/config"
	"github.com/samirrijal/madspild/internal/pkg/logging"
)

// EventsAction prints the events of one session as JSON lines until interrupted.
func EventsAction(ctx context.Context, cmd *cli.Command) error {
	if err := loadEnvFile(cmd.String("env")); err != nil {
		return err
	}
	cfg, err := config.Load("madspild")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, "text"))

	if cfg.NATS.URL == "" {
		return fmt.Errorf("nats.url is not set: session events are only published through NATS")
	}
	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		return err
	}
	pub := natsadapter.NewPublisher(nc)
	defer pub.Close()

	sessionID := cmd.String("session")
	sub, err := natsadapter.NewSubscriber(nc).SubscribeSession(ctx, sessionID,
		func(ctx context.Context, ev *domain.SessionEvent) error {
			return writeEvent(os.Stdout, ev)
		})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	slog.Info("following session", "session_id", sessionID, "subject", natsadapter.SessionSubject(sessionID))
	<-ctx.Done()
	return nil
}
