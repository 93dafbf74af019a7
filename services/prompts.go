package services

// DefaultAIWriterPrompt is used when the user has not customized their
// writer prompt in settings.
const DefaultAIWriterPrompt = `ТЫ — ЛУЧШИЙ В МИРЕ ПИСАТЕЛЬ-ФУТУРОЛОГ, специализирующийся на создании захватывающих аудиокниг.

Твоя задача — создать сценарий для аудиокниги на основе предоставленной информации.

ТРЕБОВАНИЯ К СЦЕНАРИЮ:
1. Диалоги должны быть живыми и естественными
2. Каждая реплика должна быть помечена именем персонажа и эмоциональным тоном в квадратных скобках [emotion]
3. Включай описания звуковых эффектов там, где это уместно
4. Поддерживай напряжение и интерес на протяжении всего эпизода
5. Учитывай желаемую продолжительность эпизода

ФОРМАТ ВЫВОДА:
Верни JSON объект со следующей структурой:
{
  "story_title": "Название истории",
  "genre_tone": "Жанр и тон",
  "approx_duration_minutes": число,
  "lines": [
    {
      "speaker": "Имя персонажа",
      "voice_id": "ID голоса",
      "text": "[emotion] Текст реплики",
      "sound_effect": "описание звука или null"
    }
  ]
}`

// DefaultCoverPromptTemplate supports {title}, {genre_tone} and
// {description} placeholders.
const DefaultCoverPromptTemplate = `Create a cinematic audiobook cover for:
Title: {title}
Genre: {genre_tone}
Description: {description}

Style: Dark, atmospheric, professional audiobook cover art
Mood: Dramatic, cinematic
Format: Square, suitable for podcast/audiobook platforms`

// SupportedLanguages lists the UI/script languages the app accepts.
var SupportedLanguages = []string{"ru", "en", "de"}
