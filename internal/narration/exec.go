package narration

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Supported engine names.
const (
	EngineAuto     = "auto"
	EngineEspeakNG = "espeak-ng"
	EngineEspeak   = "espeak"
	EngineSay      = "say"
	EngineNone     = "none"
)

// autoOrder is the probe order for EngineAuto.
var autoOrder = []string{EngineEspeakNG, EngineEspeak, EngineSay}

// baseWPM is the engines' normal speaking rate in words per minute.
const baseWPM = 175

// ExecSynthesizer speaks through a command-line speech engine.
type ExecSynthesizer struct {
	engine string
	path   string

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Detect returns a synthesizer for engine, or for the first engine found on
// PATH when engine is "auto" or empty. It returns ErrUnsupported when
// nothing usable is installed or engine is "none".
func Detect(engine string) (*ExecSynthesizer, error) {
	candidates := autoOrder
	switch engine {
	case "", EngineAuto:
	case EngineNone:
		return nil, ErrUnsupported
	case EngineEspeakNG, EngineEspeak, EngineSay:
		candidates = []string{engine}
	default:
		return nil, fmt.Errorf("unknown speech engine %q", engine)
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return &ExecSynthesizer{engine: name, path: p, command: exec.CommandContext}, nil
		}
	}
	return nil, ErrUnsupported
}

// Engine returns the engine name.
func (s *ExecSynthesizer) Engine() string { return s.engine }

// Voices lists the engine's voices.
func (s *ExecSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	var args []string
	if s.engine == EngineSay {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}
	out, err := s.command(ctx, s.path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s voices: %w", s.engine, err)
	}
	if s.engine == EngineSay {
		return parseSayVoices(out), nil
	}
	return parseEspeakVoices(out), nil
}

// Speak runs the engine until it exits or ctx is cancelled.
func (s *ExecSynthesizer) Speak(ctx context.Context, u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return nil
	}
	cmd := s.command(ctx, s.path, speakArgs(s.engine, u)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", s.engine, err)
	}
	return nil
}

// speakArgs builds the engine command line for u.
func speakArgs(engine string, u Utterance) []string {
	wpm := strconv.Itoa(wordsPerMinute(u.Rate))
	var args []string
	if engine == EngineSay {
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.Name)
		}
		args = append(args, "-r", wpm, "--", u.Text)
		return args
	}

	voice := ""
	if u.Voice != nil {
		voice = u.Voice.Name
	} else if u.Lang != "" {
		voice = strings.ToLower(u.Lang[:min(2, len(u.Lang))])
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	pitch := u.Pitch
	if pitch == 0 {
		pitch = 1
	}
	volume := u.Volume
	if volume == 0 {
		volume = 1
	}
	args = append(args,
		"-s", wpm,
		"-p", strconv.Itoa(clamp(int(math.Round(pitch*50)), 0, 99)),
		"-a", strconv.Itoa(clamp(int(math.Round(volume*100)), 0, 200)),
		"--", u.Text,
	)
	return args
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(math.Round(baseWPM * rate))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// parseEspeakVoices parses `espeak --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		f := strings.Fields(sc.Text())
		if len(f) < 4 {
			continue
		}
		// espeak names voices by their file path; espeak-ng accepts the
		// language code, which is also stable across versions.
		voices = append(voices, Voice{Name: f[1], Locale: f[1]})
	}
	return voices
}

var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

// parseSayVoices parses `say -v ?` output:
//
//	Alex                en_US    # Most people recognize me by my voice.
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := sayVoiceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		voices = append(voices, Voice{
			Name:   strings.TrimSpace(m[1]),
			Locale: strings.ReplaceAll(m[2], "_", "-"),
		})
	}
	return voices
}
