package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
	"github.com/heinercast/backend/websocket"
)

// Pipeline step names as reported to clients.
const (
	StepScript    = "script"
	StepVoiceover = "voiceover"
	StepSounds    = "sounds"
	StepMusic     = "music"
	StepMerge     = "merge"
	StepCover     = "cover"
)

// Mixdown gains. The voiceover stays at unity; effects and music sit under it.
const (
	voiceVolume  = 1.0
	effectVolume = 0.5
	musicVolume  = 0.25
)

// PipelineService orchestrates the episode generation steps. Each step moves
// the episode through its status pair (x_generating -> x_done), persists the
// step output, and pushes progress over the websocket hub. Any vendor failure
// parks the episode in the error status with a message.
type PipelineService struct {
	repo       *repository.GORMRepository
	vault      *KeyVault
	llm        *LLMService
	elevenLabs *ElevenLabsService
	audio      *AudioService
	cover      *CoverService
	storage    *StorageService
	hub        *websocket.Hub
}

func NewPipelineService(
	repo *repository.GORMRepository,
	vault *KeyVault,
	llm *LLMService,
	elevenLabs *ElevenLabsService,
	audio *AudioService,
	cover *CoverService,
	storage *StorageService,
	hub *websocket.Hub,
) *PipelineService {
	return &PipelineService{
		repo:       repo,
		vault:      vault,
		llm:        llm,
		elevenLabs: elevenLabs,
		audio:      audio,
		cover:      cover,
		storage:    storage,
		hub:        hub,
	}
}

// vendorKeys holds a user's decrypted vendor credentials. Empty values fall
// back to the server-wide defaults inside each vendor service.
type vendorKeys struct {
	llm        string
	elevenLabs string
	kieAI      string
}

func (p *PipelineService) keysFor(user *models.User) vendorKeys {
	decrypt := func(encrypted string) string {
		if encrypted == "" {
			return ""
		}
		plain, err := p.vault.Decrypt(encrypted)
		if err != nil {
			slog.Warn("Failed to decrypt vendor key, falling back to default", "user_id", user.ID, "error", err)
			return ""
		}
		return plain
	}

	return vendorKeys{
		llm:        decrypt(user.LLMAPIKey),
		elevenLabs: decrypt(user.ElevenLabsAPIKey),
		kieAI:      decrypt(user.KieAIAPIKey),
	}
}

// IsGenerating reports whether an episode is mid-step and must not accept
// another generation call.
func IsGenerating(status string) bool {
	return strings.HasSuffix(status, "_generating") || status == models.StatusMerging
}

func (p *PipelineService) setStatus(ctx context.Context, episode *models.Episode, userID, status, step string) error {
	episode.Status = status
	if err := p.repo.UpdateEpisode(ctx, episode); err != nil {
		return fmt.Errorf("failed to update episode status: %w", err)
	}

	p.hub.SendToUser(userID, websocket.ProgressEvent{
		Type:      "episode_progress",
		EpisodeID: episode.ID,
		Status:    status,
		Step:      step,
	})
	return nil
}

func (p *PipelineService) failStep(ctx context.Context, episode *models.Episode, userID, step string, stepErr error) error {
	slog.Error("Pipeline step failed", "episode_id", episode.ID, "step", step, "error", stepErr)

	episode.Status = models.StatusError
	episode.ErrorMessage = stepErr.Error()
	if err := p.repo.UpdateEpisode(ctx, episode); err != nil {
		slog.Error("Failed to persist episode error", "episode_id", episode.ID, "error", err)
	}

	p.hub.SendToUser(userID, websocket.ProgressEvent{
		Type:      "episode_progress",
		EpisodeID: episode.ID,
		Status:    models.StatusError,
		Step:      step,
		Error:     stepErr.Error(),
	})
	return stepErr
}

// GenerateScript runs the script step: prompts the user's LLM with the
// project context and cast, parses the structured script, and assigns voice
// IDs to every line.
func (p *PipelineService) GenerateScript(ctx context.Context, user *models.User, episode *models.Episode) error {
	keys := p.keysFor(user)

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusScriptGenerating, StepScript); err != nil {
		return err
	}

	project, err := p.repo.GetProjectWithDetails(ctx, episode.ProjectID, user.ID)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepScript, fmt.Errorf("failed to load project: %w", err))
	}
	if project == nil {
		return p.failStep(ctx, episode, user.ID, StepScript, fmt.Errorf("project not found"))
	}

	systemPrompt := user.AIWriterPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultAIWriterPrompt
	}

	userPrompt, err := p.buildScriptPrompt(ctx, user, project, episode)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepScript, err)
	}

	raw, err := p.llm.Complete(ctx, user.LLMProvider, keys.llm, user.LLMModel, systemPrompt, userPrompt)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepScript, fmt.Errorf("script generation failed: %w", err))
	}

	script, err := ParseScript(raw)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepScript, fmt.Errorf("failed to parse script: %w", err))
	}

	p.assignVoices(script, project.Characters)

	scriptJSON, err := json.Marshal(script)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepScript, fmt.Errorf("failed to serialize script: %w", err))
	}

	episode.ScriptJSON = string(scriptJSON)
	episode.ScriptText = ScriptToText(script)
	if episode.TitleAutoGenerated && script.StoryTitle != "" {
		episode.Title = script.StoryTitle
	}

	if summary, err := p.generateSummary(ctx, user, keys, episode.ScriptText); err != nil {
		slog.Warn("Summary generation failed", "episode_id", episode.ID, "error", err)
	} else {
		episode.Summary = summary
	}

	slog.Info("Script generated", "episode_id", episode.ID, "lines", len(script.Lines),
		"approx_duration_minutes", script.ApproxDurationMinute)
	return p.setStatus(ctx, episode, user.ID, models.StatusScriptDone, StepScript)
}

// buildScriptPrompt assembles the user-side prompt from project settings,
// the cast, and the previous episode's summary for continuations.
func (p *PipelineService) buildScriptPrompt(ctx context.Context, user *models.User, project *models.Project, episode *models.Episode) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", project.Title)
	if project.Description != "" {
		fmt.Fprintf(&b, "Premise: %s\n", project.Description)
	}
	if project.GenreTone != "" {
		fmt.Fprintf(&b, "Genre and tone: %s\n", project.GenreTone)
	}
	fmt.Fprintf(&b, "Target duration: %d minutes\n", episode.TargetDurationMinutes)
	fmt.Fprintf(&b, "Language: %s\n", user.Language)

	if len(project.Characters) > 0 {
		b.WriteString("\nCast (use these exact speaker names):\n")
		for _, character := range project.Characters {
			if character.Role != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", character.CharacterName, character.Role)
			} else {
				fmt.Fprintf(&b, "- %s\n", character.CharacterName)
			}
		}
	}

	if episode.IncludeSoundEffects {
		b.WriteString("\nAttach a sound_effect description to lines where an effect fits the scene.\n")
	} else {
		b.WriteString("\nDo not include sound effects; set sound_effect to null on every line.\n")
	}

	if episode.EpisodeNumber > 1 {
		previous, err := p.previousEpisode(ctx, episode)
		if err != nil {
			return "", fmt.Errorf("failed to load previous episode: %w", err)
		}
		if previous != nil && previous.Summary != "" {
			fmt.Fprintf(&b, "\nThis is episode %d. Continue the story. Previous episode summary:\n%s\n",
				episode.EpisodeNumber, previous.Summary)
		}
	}

	if episode.Description != "" {
		fmt.Fprintf(&b, "\nEpisode direction from the author:\n%s\n", episode.Description)
	}

	return b.String(), nil
}

func (p *PipelineService) previousEpisode(ctx context.Context, episode *models.Episode) (*models.Episode, error) {
	episodes, err := p.repo.GetEpisodes(ctx, episode.ProjectID)
	if err != nil {
		return nil, err
	}
	for i := range episodes {
		if episodes[i].EpisodeNumber == episode.EpisodeNumber-1 {
			return &episodes[i], nil
		}
	}
	return nil, nil
}

// assignVoices maps each script line's speaker to a cast voice, falling back
// to a deterministic stock voice for speakers outside the cast.
func (p *PipelineService) assignVoices(script *models.Script, cast []models.ProjectCharacter) {
	voiceByName := make(map[string]string, len(cast))
	for _, character := range cast {
		voiceByName[strings.ToLower(character.CharacterName)] = character.Voice.ElevenLabsVoiceID
	}

	for i := range script.Lines {
		if voiceID, ok := voiceByName[strings.ToLower(script.Lines[i].Speaker)]; ok && voiceID != "" {
			script.Lines[i].VoiceID = voiceID
			continue
		}
		script.Lines[i].VoiceID = PickFallbackVoice(script.Lines[i].Speaker)
	}
}

func (p *PipelineService) generateSummary(ctx context.Context, user *models.User, keys vendorKeys, scriptText string) (string, error) {
	systemPrompt := "You summarize audiobook episode scripts in 3-5 sentences, in the language of the script. " +
		"Capture the plot points a writer needs to continue the story in the next episode. Respond with plain text only."
	return p.llm.Summarize(ctx, user.LLMProvider, keys.llm, user.LLMModel, systemPrompt, scriptText)
}

/// GenerateVoiceover runs the voiceover step: the script's lines are split
// into dialogue parts, rendered by ElevenLabs, concatenated, and stored.
func (p *PipelineService) GenerateVoiceover(ctx context.Context, user *models.User, episode *models.Episode) error {
	keys := p.keysFor(user)

	script, err := p.loadScript(episode)
	if err != nil {
		return err
	}

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusVoiceoverGenerating, StepVoiceover); err != nil {
		return err
	}

	inputs := make([]DialogueInput, 0, len(script.Lines))
	for _, line := range script.Lines {
		inputs = append(inputs, DialogueInput{Text: line.Text, VoiceID: line.VoiceID})
	}

	parts := SplitDialogue(inputs)

	tempDir, err := os.MkdirTemp("", "voiceover-*")
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(tempDir)

	partPaths := make([]string, 0, len(parts))
	var alignments []json.RawMessage
	for i, part := range parts {
		result, err := p.elevenLabs.TextToDialogue(ctx, keys.elevenLabs, part)
		if err != nil {
			return p.failStep(ctx, episode, user.ID, StepVoiceover, fmt.Errorf("dialogue part %d failed: %w", i+1, err))
		}

		partPath := filepath.Join(tempDir, fmt.Sprintf("part-%d.mp3", i))
		if err := os.WriteFile(partPath, result.Audio, 0644); err != nil {
			return p.failStep(ctx, episode, user.ID, StepVoiceover, fmt.Errorf("failed to write dialogue part: %w", err))
		}
		partPaths = append(partPaths, partPath)

		if len(result.Alignment) > 0 {
			alignments = append(alignments, result.Alignment)
		}
	}

	mergedPath := filepath.Join(tempDir, "voiceover.mp3")
	if err := p.audio.ConcatParts(ctx, partPaths, mergedPath); err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, err)
	}

	merged, err := os.ReadFile(mergedPath)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, fmt.Errorf("failed to read merged voiceover: %w", err))
	}

	url, err := p.storage.Save(merged, "voice", "mp3")
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, err)
	}

	duration, err := p.audio.GetAudioDuration(ctx, mergedPath)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, err)
	}

	timestamps, err := json.Marshal(alignments)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepVoiceover, fmt.Errorf("failed to serialize timestamps: %w", err))
	}

	episode.VoiceAudioURL = url
	episode.VoiceAudioDuration = duration
	episode.VoiceTimestampsJSON = string(timestamps)

	slog.Info("Voiceover generated", "episode_id", episode.ID, "parts", len(parts), "duration_seconds", duration)
	return p.setStatus(ctx, episode, user.ID, models.StatusVoiceoverDone, StepVoiceover)
}

// GenerateSounds runs the sound effects step. When the episode has effects
// disabled the step completes immediately without calling the vendor.
func (p *PipelineService) GenerateSounds(ctx context.Context, user *models.User, episode *models.Episode) error {
	keys := p.keysFor(user)

	if !episode.IncludeSoundEffects {
		episode.SoundsJSON = ""
		return p.setStatus(ctx, episode, user.ID, models.StatusSoundsDone, StepSounds)
	}

	script, err := p.loadScript(episode)
	if err != nil {
		return err
	}

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusSoundsGenerating, StepSounds); err != nil {
		return err
	}

	effects := PlanSoundEffects(script)
	for i := range effects {
		audio, err := p.elevenLabs.GenerateSoundEffect(ctx, keys.elevenLabs,
			effects[i].Prompt, effects[i].Duration, defaultPromptInfluence)
		if err != nil {
			return p.failStep(ctx, episode, user.ID, StepSounds,
				fmt.Errorf("sound effect %q failed: %w", effects[i].Prompt, err))
		}

		url, err := p.storage.Save(audio, "sounds", "mp3")
		if err != nil {
			return p.failStep(ctx, episode, user.ID, StepSounds, err)
		}
		effects[i].URL = url
		if path, err := p.storage.PathForURL(url); err == nil {
			effects[i].LocalPath = path
		}
	}

	soundsJSON, err := json.Marshal(effects)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepSounds, fmt.Errorf("failed to serialize effects: %w", err))
	}
	episode.SoundsJSON = string(soundsJSON)

	slog.Info("Sound effects generated", "episode_id", episode.ID, "effects", len(effects))
	return p.setStatus(ctx, episode, user.ID, models.StatusSoundsDone, StepSounds)
}

// GenerateMusic runs the background music step: a composition plan is
// requested for the voiceover's length, then rendered. Disabled music
// completes the step immediately.
func (p *PipelineService) GenerateMusic(ctx context.Context, user *models.User, episode *models.Episode) error {
	keys := p.keysFor(user)

	if !episode.IncludeBackgroundMusic {
		episode.MusicURL = ""
		episode.MusicCompositionPlan = ""
		return p.setStatus(ctx, episode, user.ID, models.StatusMusicDone, StepMusic)
	}

	if episode.VoiceAudioURL == "" {
		return fmt.Errorf("episode has no voiceover yet")
	}

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusMusicGenerating, StepMusic); err != nil {
		return err
	}

	project, err := p.repo.GetProjectByID(ctx, episode.ProjectID, user.ID)
	if err != nil || project == nil {
		return p.failStep(ctx, episode, user.ID, StepMusic, fmt.Errorf("failed to load project: %w", err))
	}

	prompt := project.MusicalAtmosphere
	if prompt == "" {
		prompt = "Subtle instrumental background music for an audiobook. " + project.GenreTone
	}

	lengthMs := int(episode.VoiceAudioDuration * 1000)
	plan, err := p.elevenLabs.PlanMusic(ctx, keys.elevenLabs, prompt, lengthMs)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMusic, fmt.Errorf("music planning failed: %w", err))
	}

	audio, err := p.elevenLabs.ComposeMusic(ctx, keys.elevenLabs, plan)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMusic, fmt.Errorf("music composition failed: %w", err))
	}

	url, err := p.storage.Save(audio, "music", "mp3")
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMusic, err)
	}

	episode.MusicURL = url
	episode.MusicCompositionPlan = string(plan)

	slog.Info("Background music generated", "episode_id", episode.ID, "length_ms", lengthMs)
	return p.setStatus(ctx, episode, user.ID, models.StatusMusicDone, StepMusic)
}

// MergeAudio runs the mixdown: voiceover at unity gain, sound effects delayed
// to their timeline positions, music underneath.
func (p *PipelineService) MergeAudio(ctx context.Context, user *models.User, episode *models.Episode) error {
	if episode.VoiceAudioURL == "" {
		return fmt.Errorf("episode has no voiceover yet")
	}

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusMerging, StepMerge); err != nil {
		return err
	}

	voicePath, err := p.storage.PathForURL(episode.VoiceAudioURL)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, err)
	}

	tracks := []MixTrack{{Path: voicePath, Volume: voiceVolume}}

	if episode.SoundsJSON != "" {
		var effects []models.SoundEffect
		if err := json.Unmarshal([]byte(episode.SoundsJSON), &effects); err != nil {
			return p.failStep(ctx, episode, user.ID, StepMerge, fmt.Errorf("failed to parse effects: %w", err))
		}
		for _, effect := range effects {
			path := effect.LocalPath
			if path == "" {
				if path, err = p.storage.PathForURL(effect.URL); err != nil {
					return p.failStep(ctx, episode, user.ID, StepMerge, err)
				}
			}
			tracks = append(tracks, MixTrack{
				Path:    path,
				Volume:  effectVolume,
				DelayMs: int(effect.StartTime * 1000),
			})
		}
	}

	if episode.MusicURL != "" {
		musicPath, err := p.storage.PathForURL(episode.MusicURL)
		if err != nil {
			return p.failStep(ctx, episode, user.ID, StepMerge, err)
		}
		tracks = append(tracks, MixTrack{Path: musicPath, Volume: musicVolume})
	}

	tempDir, err := os.MkdirTemp("", "mixdown-*")
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(tempDir)

	mixedPath := filepath.Join(tempDir, "final.mp3")
	if err := p.audio.Mix(ctx, tracks, mixedPath); err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, err)
	}

	mixed, err := os.ReadFile(mixedPath)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, fmt.Errorf("failed to read mixdown: %w", err))
	}

	url, err := p.storage.Save(mixed, "final", "mp3")
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, err)
	}

	duration, err := p.audio.GetAudioDuration(ctx, mixedPath)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepMerge, err)
	}

	episode.FinalAudioURL = url
	episode.FinalAudioDuration = duration

	slog.Info("Final audio merged", "episode_id", episode.ID, "tracks", len(tracks), "duration_seconds", duration)
	return p.setStatus(ctx, episode, user.ID, models.StatusAudioDone, StepMerge)
}

// GenerateCover runs the cover art step and completes the episode. Variants
// are generated in parallel and the first one is pre-selected.
func (p *PipelineService) GenerateCover(ctx context.Context, user *models.User, episode *models.Episode, variantCount int) error {
	keys := p.keysFor(user)

	episode.ErrorMessage = ""
	if err := p.setStatus(ctx, episode, user.ID, models.StatusCoverGenerating, StepCover); err != nil {
		return err
	}

	project, err := p.repo.GetProjectByID(ctx, episode.ProjectID, user.ID)
	if err != nil || project == nil {
		return p.failStep(ctx, episode, user.ID, StepCover, fmt.Errorf("failed to load project: %w", err))
	}

	styleInstructions := ""
	if project.CoverPrompt != "" {
		if style, err := p.repo.GetCoverStyleByKey(ctx, project.CoverPrompt); err == nil && style != nil {
			styleInstructions = style.Instructions
		} else {
			styleInstructions = project.CoverPrompt
		}
	}

	title := episode.Title
	if title == "" {
		title = project.Title
	}
	prompt := BuildCoverPrompt(user.CoverPromptTemplate, title, project.GenreTone, episode.Summary, styleInstructions)

	urls, err := p.cover.GenerateVariants(ctx, keys.kieAI, prompt, episode.CoverReferenceImageURL, variantCount)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepCover, fmt.Errorf("cover generation failed: %w", err))
	}

	variants := make([]models.CoverVariant, len(urls))
	for i, url := range urls {
		variants[i] = models.CoverVariant{URL: url, Selected: i == 0}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return p.failStep(ctx, episode, user.ID, StepCover, fmt.Errorf("failed to serialize variants: %w", err))
	}

	episode.CoverURL = urls[0]
	episode.CoverVariantsJSON = string(variantsJSON)

	slog.Info("Cover generated", "episode_id", episode.ID, "variants", len(urls))
	return p.setStatus(ctx, episode, user.ID, models.StatusDone, StepCover)
}

// RunFull executes every remaining step in order. Disabled steps complete
// immediately inside their step functions.
func (p *PipelineService) RunFull(ctx context.Context, user *models.User, episode *models.Episode, variantCount int) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{StepScript, func() error { return p.GenerateScript(ctx, user, episode) }},
		{StepVoiceover, func() error { return p.GenerateVoiceover(ctx, user, episode) }},
		{StepSounds, func() error { return p.GenerateSounds(ctx, user, episode) }},
		{StepMusic, func() error { return p.GenerateMusic(ctx, user, episode) }},
		{StepMerge, func() error { return p.MergeAudio(ctx, user, episode) }},
		{StepCover, func() error { return p.GenerateCover(ctx, user, episode, variantCount) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("step %s: %w", step.name, err)
		}
	}
	return nil
}

func (p *PipelineService) loadScript(episode *models.Episode) (*models.Script, error) {
	if episode.ScriptJSON == "" {
		return nil, fmt.Errorf("episode has no script yet")
	}
	var script models.Script
	if err := json.Unmarshal([]byte(episode.ScriptJSON), &script); err != nil {
		return nil, fmt.Errorf("failed to parse stored script: %w", err)
	}
	return &script, nil
}

// StepState describes one pipeline step in a status report.
type StepState struct {
	Name  string `json:"name"`
	State string `json:"state"` // pending, in_progress, done, skipped, error
}

// statusRank orders the linear pipeline for status derivation. Each step owns
// the rank of its terminal status.
var statusRank = map[string]int{
	models.StatusDraft:               0,
	models.StatusScriptGenerating:    1,
	models.StatusScriptDone:          2,
	models.StatusVoiceoverGenerating: 3,
	models.StatusVoiceoverDone:       4,
	models.StatusSoundsGenerating:    5,
	models.StatusSoundsDone:          6,
	models.StatusMusicGenerating:     7,
	models.StatusMusicDone:           8,
	models.StatusMerging:             9,
	models.StatusAudioDone:           10,
	models.StatusCoverGenerating:     11,
	models.StatusDone:                12,
}

// StepStates derives the per-step view of an episode's progress from its
// status. An errored episode reports the failing step from its last
// generating status recorded before the error, which the caller does not
// have; the first incomplete step is reported as errored instead.
func StepStates(episode *models.Episode) []StepState {
	type stepDef struct {
		name       string
		generating string
		doneRank   int
		skipped    bool
	}

	defs := []stepDef{
		{StepScript, models.StatusScriptGenerating, statusRank[models.StatusScriptDone], false},
		{StepVoiceover, models.StatusVoiceoverGenerating, statusRank[models.StatusVoiceoverDone], false},
		{StepSounds, models.StatusSoundsGenerating, statusRank[models.StatusSoundsDone], !episode.IncludeSoundEffects},
		{StepMusic, models.StatusMusicGenerating, statusRank[models.StatusMusicDone], !episode.IncludeBackgroundMusic},
		{StepMerge, models.StatusMerging, statusRank[models.StatusAudioDone], false},
		{StepCover, models.StatusCoverGenerating, statusRank[models.StatusDone], false},
	}

	rank, known := statusRank[episode.Status]
	failed := episode.Status == models.StatusError

	states := make([]StepState, 0, len(defs))
	errorAssigned := false
	for _, def := range defs {
		var state string
		switch {
		case def.skipped:
			state = "skipped"
		case failed:
			// The failing step is the first one that has not completed.
			if !errorAssigned && !stepCompleted(episode, def.name) {
				state = "error"
				errorAssigned = true
			} else if stepCompleted(episode, def.name) {
				state = "done"
			} else {
				state = "pending"
			}
		case known && episode.Status == def.generating:
			state = "in_progress"
		case known && rank >= def.doneRank:
			state = "done"
		default:
			state = "pending"
		}
		states = append(states, StepState{Name: def.name, State: state})
	}
	return states
}

// CurrentStepIndex locates the step the pipeline is on: the one in progress
// or errored, otherwise the first pending one. -1 means nothing is left to
// run.
func CurrentStepIndex(states []StepState) int {
	for i, state := range states {
		if state.State == "in_progress" || state.State == "error" {
			return i
		}
	}
	for i, state := range states {
		if state.State == "pending" {
			return i
		}
	}
	return -1
}

// stepCompleted checks step output artifacts, used to attribute an error
// status to the right step.
func stepCompleted(episode *models.Episode, step string) bool {
	switch step {
	case StepScript:
		return episode.ScriptJSON != ""
	case StepVoiceover:
		return episode.VoiceAudioURL != ""
	case StepSounds:
		return episode.SoundsJSON != "" || !episode.IncludeSoundEffects
	case StepMusic:
		return episode.MusicURL != "" || !episode.IncludeBackgroundMusic
	case StepMerge:
		return episode.FinalAudioURL != ""
	case StepCover:
		return episode.CoverURL != ""
	}
	return false
}
