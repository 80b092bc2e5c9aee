package config

import (
	"os"
	"strconv"
	"time"
)

type ConfigStruct struct {
	Discord DiscordConfig
	Options Options
	Youtube YoutubeConfig
	Spotify SpotifyConfig
}

type DiscordConfig struct {
	BotToken  string
	AppID     string
	PublicKey string
}

type YoutubeConfig struct {
	APIKey            string
	SearchResultLimit int
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Enabled      bool
}

type Options struct {
	Port                  string
	AudioBitrate          int // Audio bitrate in bps (e.g., 96000 for 96 kbps)
	ChooserTimeoutSeconds int
	DefaultVolume         int
	DBPath                string
	LogLevel              string
	SentryDSN             string
	Release               string
}

func (options *Options) ChooserTimeout() time.Duration {
	return time.Duration(options.ChooserTimeoutSeconds) * time.Second
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Discord: DiscordConfig{
			BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
			AppID:     os.Getenv("DISCORD_APP_ID"),
			PublicKey: os.Getenv("DISCORD_PUBLIC_KEY"),
		},
		Options: Options{
			Port:                  getPort(),
			AudioBitrate:          getAudioBitrate(),
			ChooserTimeoutSeconds: getChooserTimeout(),
			DefaultVolume:         getDefaultVolume(),
			DBPath:                os.Getenv("DB_PATH"),
			LogLevel:              os.Getenv("LOG_LEVEL"),
			SentryDSN:             os.Getenv("SENTRY_DSN"),
			Release:               os.Getenv("RELEASE"),
		},
		Youtube: YoutubeConfig{
			APIKey:            os.Getenv("YOUTUBE_API_KEY"),
			SearchResultLimit: getSearchResultLimit(),
		},
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			Enabled:      os.Getenv("SPOTIFY_ENABLED") == "true",
		},
	}

	Config = config
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		return "8080"
	}
	return port
}

func getChooserTimeout() int {
	timeoutStr := os.Getenv("CHOOSER_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 60
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 60
	}
	if timeout > 600 {
		return 600
	}
	return timeout
}

func getDefaultVolume() int {
	volumeStr := os.Getenv("DEFAULT_VOLUME")
	if volumeStr == "" {
		return 100
	}
	volume, err := strconv.Atoi(volumeStr)
	if err != nil || volume < 0 {
		return 100
	}
	if volume > 150 {
		return 150
	}
	return volume
}

func getSearchResultLimit() int {
	limitStr := os.Getenv("SEARCH_RESULT_LIMIT")
	if limitStr == "" {
		return 5
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 5
	}
	if limit > 5 {
		return 5 // the chooser only has five reactions
	}
	return limit
}

func getAudioBitrate() int {
	bitrateStr := os.Getenv("AUDIO_BITRATE")
	if bitrateStr == "" {
		return 128000 // Default to 128 kbps - max for regular voice channels
	}
	bitrate, err := strconv.Atoi(bitrateStr)
	if err != nil || bitrate <= 0 {
		return 128000
	}
	// Discord supports 8 kbps to 512 kbps for Opus
	if bitrate < 8000 {
		return 8000
	}
	if bitrate > 512000 {
		return 512000
	}
	return bitrate
}
