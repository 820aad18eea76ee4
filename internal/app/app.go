package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/rest"
	"github.com/vovakirdan/wirechat-client/internal/store"
	"github.com/vovakirdan/wirechat-client/internal/store/sqlite"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// App wires the REST client, the channel connection, and the local cache
// behind a line-oriented interactive loop.
type App struct {
	cfg   config.Config
	log   *zerolog.Logger
	rest  *rest.Client
	conn  *chat.ChannelConnection
	cache store.Store // nil when caching is disabled

	user   chat.User
	active string
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	restClient, err := rest.New(cfg.ServerURL, logger)
	if err != nil {
		return nil, fmt.Errorf("init rest client: %w", err)
	}

	dialer, err := ws.NewDialer(cfg.ServerURL, restClient.HTTPClient(), cfg.DialTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("init ws dialer: %w", err)
	}

	policy := chat.ReconnectPolicy{
		BaseDelay:   cfg.ReconnectBaseDelay,
		MaxDelay:    cfg.ReconnectMaxDelay,
		MaxAttempts: cfg.ReconnectMaxAttempts,
	}

	var cache store.Store
	if cfg.CachePath != "" {
		cache, err = sqlite.New(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		logger.Info().Str("cache_path", cfg.CachePath).Msg("local cache enabled")
	}

	return &App{
		cfg:   cfg,
		log:   logger,
		rest:  restClient,
		conn:  chat.NewChannelConnection(dialer, policy, logger),
		cache: cache,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close cache")
		}
	}
}

// Run signs in, starts the connection loop, and serves the interactive
// prompt until ctx cancellation or EOF on stdin. A rest.ErrUnauthorized
// return means the session was rejected and the user must sign in again.
func (a *App) Run(ctx context.Context, email, password string) error {
	stdin := bufio.NewScanner(os.Stdin)

	if err := a.signIn(ctx, stdin, email, password); err != nil {
		return err
	}

	me, err := a.rest.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetch identity: %w", err)
	}
	a.user = *me
	fmt.Printf("Signed in as %s\n", a.user.Name)

	channels, err := a.listChannels(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.conn.Run(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.consumeEvents(ctx)
	}()

	if len(channels) > 0 {
		a.switchChannel(channels[0])
	}

	err = a.inputLoop(ctx, stdin)
	cancel()
	<-done
	return err
}

func (a *App) signIn(ctx context.Context, stdin *bufio.Scanner, email, password string) error {
	if email == "" {
		fmt.Print("email: ")
		if !stdin.Scan() {
			return errors.New("stdin closed during sign-in")
		}
		email = strings.TrimSpace(stdin.Text())
	}
	if password == "" {
		fmt.Print("password: ")
		if !stdin.Scan() {
			return errors.New("stdin closed during sign-in")
		}
		password = stdin.Text()
	}

	if err := a.rest.Login(ctx, email, password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

// listChannels fetches the directory, refreshes the cache, and prints it.
// On a network failure with a warm cache, the cached copy is shown instead.
func (a *App) listChannels(ctx context.Context) ([]chat.Channel, error) {
	channels, err := a.rest.Channels(ctx)
	if err != nil {
		if errors.Is(err, rest.ErrUnauthorized) {
			return nil, err
		}
		if a.cache == nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		a.log.Warn().Err(err).Msg("channel list unavailable, using cache")
		channels, err = a.cache.Channels(ctx)
		if err != nil {
			return nil, fmt.Errorf("cached channels: %w", err)
		}
	} else if a.cache != nil {
		if err := a.cache.ReplaceChannels(ctx, channels); err != nil {
			a.log.Warn().Err(err).Msg("failed to cache channels")
		}
	}

	for _, ch := range channels {
		visibility := "public"
		if ch.Private {
			visibility = "private"
		}
		fmt.Printf("  #%s  (%s, %s)\n", ch.Name, ch.ID, visibility)
	}
	return channels, nil
}

func (a *App) switchChannel(ch chat.Channel) {
	a.active = ch.ID
	fmt.Printf("-- joined #%s --\n", ch.Name)
	if err := a.conn.Activate(ch.ID); err != nil {
		a.log.Error().Err(err).Str("channel", ch.ID).Msg("activate failed")
	}
}

// consumeEvents renders connection activity and mirrors confirmed messages
// into the cache. While a channel is still connecting, its cached history is
// shown so a fresh start has something on screen before the socket opens.
func (a *App) consumeEvents(ctx context.Context) {
	r := &renderer{w: os.Stdout}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.conn.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case chat.EventStateChanged:
				if ev.Err != nil {
					fmt.Printf("* %s (%v)\n", ev.State, ev.Err)
				} else {
					fmt.Printf("* %s\n", ev.State)
				}
				if ev.State == chat.StateConnecting && r.shown == 0 {
					a.previewCache(ctx, r, ev.Channel)
				}
			case chat.EventMessages:
				r.snapshot(ev.Messages)
				if a.cache != nil && ev.Channel != "" {
					if err := a.cache.ReplaceHistory(ctx, ev.Channel, ev.Messages); err != nil {
						a.log.Warn().Err(err).Str("channel", ev.Channel).Msg("failed to cache history")
					}
				}
			case chat.EventSmartReplies:
				if len(ev.Replies) > 0 {
					fmt.Printf("suggestions: %s\n", strings.Join(ev.Replies, " | "))
				}
			}
		}
	}
}

// previewCache prints the cached history for a channel while its live
// history is still in flight.
func (a *App) previewCache(ctx context.Context, r *renderer, channelID string) {
	if a.cache == nil || channelID == "" {
		return
	}
	cached, err := a.cache.History(ctx, channelID)
	if err != nil {
		a.log.Warn().Err(err).Str("channel", channelID).Msg("failed to read cached history")
		return
	}
	r.preview(cached)
}

// inputLoop reads commands and message text from stdin. Returns when stdin
// closes, /quit is entered, or the session is rejected.
func (a *App) inputLoop(ctx context.Context, stdin *bufio.Scanner) error {
	fmt.Println("Commands: /channels /join <id> /users /recipients /dm <user-id> /quit. Anything else is sent.")

	for stdin.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(stdin.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/channels":
			if _, err := a.listChannels(ctx); err != nil {
				if errors.Is(err, rest.ErrUnauthorized) {
					return err
				}
				fmt.Printf("error: %v\n", err)
			}
		case line == "/users":
			users, err := a.rest.Users(ctx)
			if err != nil {
				if errors.Is(err, rest.ErrUnauthorized) {
					return err
				}
				fmt.Printf("error: %v\n", err)
				continue
			}
			for _, u := range users {
				fmt.Printf("  %s  (%s)\n", u.Name, u.ID)
			}
		case line == "/recipients":
			recipients, err := a.rest.DMRecipients(ctx)
			if err != nil {
				if errors.Is(err, rest.ErrUnauthorized) {
					return err
				}
				fmt.Printf("error: %v\n", err)
				continue
			}
			for _, u := range recipients {
				fmt.Printf("  %s  (%s)\n", u.Name, u.ID)
			}
		case strings.HasPrefix(line, "/join "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			a.switchChannel(chat.Channel{ID: id, Name: id})
		case strings.HasPrefix(line, "/dm "):
			userID := strings.TrimSpace(strings.TrimPrefix(line, "/dm "))
			ch, err := a.rest.OpenDM(ctx, userID)
			if err != nil {
				if errors.Is(err, rest.ErrUnauthorized) {
					return err
				}
				fmt.Printf("error: %v\n", err)
				continue
			}
			a.switchChannel(*ch)
		case strings.HasPrefix(line, "/"):
			fmt.Printf("unknown command: %s\n", line)
		default:
			if a.active == "" {
				fmt.Println("no active channel, /join one first")
				continue
			}
			a.conn.Send(line, a.user)
		}
	}
	return stdin.Err()
}
