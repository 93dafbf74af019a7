package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heinercast/backend/models"
)

const (
	// Spoken-text pacing used to place sound effects on the timeline.
	charsPerSecond = 14.0

	defaultEffectDuration  = 3.0
	defaultPromptInfluence = 0.3

	// FFmpeg libmp3lame VBR quality for final output (2 is high quality).
	outputQuality = "2"
)

// AudioService shells out to ffmpeg/ffprobe for duration probing,
// concatenation, and the final mixdown.
type AudioService struct{}

func NewAudioService() *AudioService {
	return &AudioService{}
}

// GetAudioDuration returns the duration of an audio file in seconds.
func (a *AudioService) GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration: %w", err)
	}
	return duration, nil
}

// ConcatParts joins sequential audio parts into one file without
// re-encoding.
func (a *AudioService) ConcatParts(ctx context.Context, parts []string, outputPath string) error {
	if len(parts) == 0 {
		return fmt.Errorf("no parts to concatenate")
	}
	if len(parts) == 1 {
		data, err := os.ReadFile(parts[0])
		if err != nil {
			return fmt.Errorf("failed to read part: %w", err)
		}
		return os.WriteFile(outputPath, data, 0644)
	}

	listFile, err := os.CreateTemp("", "concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			return fmt.Errorf("failed to resolve part path: %w", err)
		}
		fmt.Fprintf(listFile, "file '%s'\n", abs)
	}
	listFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile.Name(),
		"-c", "copy",
		"-y",
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w - %s", err, string(output))
	}

	slog.Info("Concatenated audio parts", "parts", len(parts), "output", outputPath)
	return nil
}

// MixTrack is one input to the final mixdown with its gain and delay.
type MixTrack struct {
	Path    string
	Volume  float64
	DelayMs int
}

// BuildMixFilter constructs the ffmpeg filter_complex graph mixing the
// voiceover with delayed sound effects and background music. The first
// track defines the output duration.
func BuildMixFilter(tracks []MixTrack) string {
	var filters []string
	var labels []string

	for i, track := range tracks {
		label := fmt.Sprintf("a%d", i)
		chain := fmt.Sprintf("[%d:a]volume=%s", i, formatFloat(track.Volume))
		if track.DelayMs > 0 {
			chain += fmt.Sprintf(",adelay=%d|%d", track.DelayMs, track.DelayMs)
		}
		chain += fmt.Sprintf("[%s]", label)
		filters = append(filters, chain)
		labels = append(labels, "["+label+"]")
	}

	filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=first[out]",
		strings.Join(labels, ""), len(tracks)))
	return strings.Join(filters, ";")
}

// Mix renders the final episode audio from the given tracks.
func (a *AudioService) Mix(ctx context.Context, tracks []MixTrack, outputPath string) error {
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks to mix")
	}

	args := []string{}
	for _, track := range tracks {
		args = append(args, "-i", track.Path)
	}
	args = append(args,
		"-filter_complex", BuildMixFilter(tracks),
		"-map", "[out]",
		"-c:a", "libmp3lame",
		"-q:a", outputQuality,
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mix failed: %w - %s", err, string(output))
	}

	slog.Info("Mixed final audio", "tracks", len(tracks), "output", outputPath)
	return nil
}

// PlanSoundEffects derives timeline placements for a script's sound
// effects. Each line's spoken length is estimated from its character count;
// an effect attached to a line plays at the line's end.
func PlanSoundEffects(script *models.Script) []models.SoundEffect {
	var effects []models.SoundEffect
	elapsed := 0.0

	for _, line := range script.Lines {
		lineDuration := float64(len(line.Text)) / charsPerSecond
		elapsed += lineDuration

		if line.SoundEffect != nil && *line.SoundEffect != "" {
			effects = append(effects, models.SoundEffect{
				Prompt:    *line.SoundEffect,
				StartTime: elapsed,
				Duration:  defaultEffectDuration,
			})
		}
	}
	return effects
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
