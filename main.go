package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"trackbot/applemusic"
	"trackbot/audio"
	appConfig "trackbot/config"
	"trackbot/controller"
	"trackbot/database"
	"trackbot/discord"
	"trackbot/handlers"
	"trackbot/lyrics"
	"trackbot/sentry"
	"trackbot/spotify"
	"trackbot/youtube"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	configureLogging(appConfig.Config.Options.LogLevel)
	sentry.Init(appConfig.Config.Options.SentryDSN, appConfig.Config.Options.Release)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func configureLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		FieldsOrder:     []string{"module", "guildID", "command"},
		TimestampFormat: time.RFC3339,
		HideKeys:        true,
	})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func run(ctx context.Context) error {
	cfg := appConfig.Config

	db, err := database.New(cfg.Options.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	youtubeClient, err := youtube.NewClient(ctx, cfg.Youtube.APIKey, cfg.Youtube.SearchResultLimit)
	if err != nil {
		return err
	}

	spotifyID, spotifySecret := "", ""
	if cfg.Spotify.Enabled {
		spotifyID, spotifySecret = cfg.Spotify.ClientID, cfg.Spotify.ClientSecret
	}
	spotifyResolver, err := spotify.NewResolver(ctx, spotifyID, spotifySecret, youtubeClient)
	if err != nil {
		return err
	}
	searcher := applemusic.NewResolver(spotifyResolver)

	session, err := discord.NewSession(cfg.Discord.BotToken)
	if err != nil {
		return err
	}
	defer session.Close()

	players := controller.NewController(controller.Options{
		Chooser:        discord.NewReactionChooser(session),
		Recorder:       db,
		Settings:       db,
		ChooserTimeout: cfg.Options.ChooserTimeout(),
		DefaultVolume:  cfg.Options.DefaultVolume,
	})

	discord.WatchVoiceDisconnects(session, players)

	manager := handlers.NewManager(cfg.Discord.AppID, cfg.Discord.PublicKey, players, handlers.Dependencies{
		Searcher:  searcher,
		Voice:     discord.NewVoiceConnector(session, audio.NewLoader(youtubeClient), cfg.Options.AudioBitrate),
		Followups: discord.NewFollowups(session, cfg.Discord.AppID),
		Lyrics:    lyrics.New(),
		History:   db,
	})

	router := gin.Default()
	router.Use(sentry.GinMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":     true,
			"guilds": players.Len(),
		})
	})

	router.POST("/discord/interactions", func(c *gin.Context) {
		signature := c.GetHeader("X-Signature-Ed25519")
		timestamp := c.GetHeader("X-Signature-Timestamp")

		bodyBytes, err := c.GetRawData()
		if err != nil {
			log.Errorf("Error reading body: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}

		if !manager.VerifyDiscordRequest(signature, timestamp, bodyBytes) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid request signature"})
			return
		}

		interaction, err := manager.ParseInteraction(bodyBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse interaction"})
			return
		}

		c.JSON(http.StatusOK, manager.HandleInteraction(c.Request.Context(), interaction))
	})

	server := &http.Server{
		Addr:    ":" + cfg.Options.Port,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error shutting down server: %v", err)
		}
	}()

	log.Infof("Starting server on :%s", cfg.Options.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
