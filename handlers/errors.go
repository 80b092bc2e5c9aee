package handlers

import (
	"errors"
	"strconv"
	"strings"

	"trackbot/applemusic"
	"trackbot/controller"
	"trackbot/discord"
	"trackbot/lyrics"
	"trackbot/queue"
	"trackbot/spotify"
	"trackbot/youtube"
)

const repeatModes = "Options are: ['none', '1', 'all']"

// errorMessage turns a command failure into the text shown to the user.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, queue.ErrQueueEmpty):
		return "The queue is currently empty."
	case errors.Is(err, queue.ErrInvalidRepeatMode):
		return "Not a valid repeat mode. " + repeatModes
	case errors.Is(err, controller.ErrNoTracksFound), errors.Is(err, youtube.ErrVideoNotFound):
		return "No tracks could be found."
	case errors.Is(err, controller.ErrNoMoreTracks):
		return "There are no more tracks in the queue."
	case errors.Is(err, controller.ErrNoPreviousTracks):
		return "There are no previous tracks in the queue."
	case errors.Is(err, controller.ErrIndexOutOfRange):
		return "That index is out of the bounds of the queue."
	case errors.Is(err, controller.ErrVolumeTooLow):
		return "The volume must be 0% or above."
	case errors.Is(err, controller.ErrVolumeTooHigh):
		return "The volume must be 150% or below."
	case errors.Is(err, controller.ErrMaxVolume):
		return "The player is already at max volume."
	case errors.Is(err, controller.ErrMinVolume):
		return "The player is already at min volume."
	case errors.Is(err, controller.ErrNonExistentEQBand):
		return "This is a 15 band equaliser. The band number should be between 1 and 15, " +
			"or one of the following frequencies: " + frequencyList()
	case errors.Is(err, controller.ErrEQGainOutOfBounds):
		return "The EQ gain for any band should be between 10 dB and -10 dB."
	case errors.Is(err, controller.ErrInvalidEQPreset):
		return "The EQ preset must be one of: " + strings.Join(controller.EQPresetNames(), ", ") + "."
	case errors.Is(err, controller.ErrInvalidTimeString):
		return "Invalid time. Use a format like 1:30, 1m30s or 90."
	case errors.Is(err, controller.ErrNotConnected):
		return "I'm not connected to a voice channel."
	case errors.Is(err, controller.ErrNothingPlaying):
		return "There is no track currently playing."
	case errors.Is(err, controller.ErrAlreadyPaused):
		return "Already paused."
	case errors.Is(err, controller.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, lyrics.ErrNoLyricsFound):
		return "No lyrics could be found."
	case errors.Is(err, discord.ErrNotInVoiceChannel):
		return "Hey dummy, join a voice channel first"
	case errors.Is(err, youtube.ErrPlaylistNotSupported):
		return "Playlists aren't supported yet, link a single video."
	case errors.Is(err, spotify.ErrUnsupportedLink):
		return "Only Spotify track links are supported."
	case errors.Is(err, spotify.ErrSpotifyUnavailable):
		return "Spotify links aren't enabled on this bot."
	case errors.Is(err, spotify.ErrInvalidURL):
		return "That doesn't look like a valid Spotify link."
	case errors.Is(err, applemusic.ErrUnsupportedLink):
		return "Only Apple Music song links are supported."
	case errors.Is(err, applemusic.ErrInvalidURL):
		return "That doesn't look like a valid Apple Music link."
	}
	return "Something went wrong: " + err.Error()
}

func frequencyList() string {
	frequencies := make([]string, 0, len(controller.EQFrequencies))
	for _, hz := range controller.EQFrequencies {
		frequencies = append(frequencies, strconv.Itoa(hz))
	}
	return strings.Join(frequencies, ", ")
}
