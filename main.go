package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-arrange/api"
	"go-arrange/audio"
	"go-arrange/auth"
	"go-arrange/config"
	"go-arrange/debug"
	"go-arrange/instrument"
	"go-arrange/midi"
	"go-arrange/sequencer"
	"go-arrange/theme"
	"go-arrange/tui"
	"go-arrange/widgets"
)

func main() {
	if len(os.Args) > 1 {
		if cmd, ok := commands[os.Args[1]]; ok {
			if err := cmd(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var commands = map[string]func(args []string) error{
	"login":  login,
	"signup": signup,
	"logout": logout,
	"whoami": whoami,
	"pull":   pull,
}

// env is what every entry point needs: config, library and the account
type env struct {
	cfg     *config.Config
	library *sequencer.Library
	session *auth.Session
	client  *api.Client
}

func setup(configPath string) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		if err := debug.Enable("", cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	dir, err := cfg.ProjectsPath()
	if err != nil {
		return nil, err
	}
	tokenPath, err := cfg.TokenFile()
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		library: sequencer.NewLibrary(dir, sequencer.Format(cfg.SaveFormat)),
		session: auth.NewSession(nil, auth.NewStore(tokenPath)),
	}
	e.client = api.New(cfg.Server.URL, time.Duration(cfg.Server.Timeout), e.session.Token)
	e.session.SetBackend(e.client)
	if err := e.session.Restore(); err != nil {
		debug.Warn("auth", err)
	}
	return e, nil
}

func run(args []string) error {
	flags := flag.NewFlagSet("go-arrange", flag.ExitOnError)
	configPath := flags.String("config", "", "config file (default ~/.config/go-arrange/config.json)")
	projectName := flags.String("project", "", "open the latest save of a project")
	midiPath := flags.String("midi", "", "import a MIDI file")
	audioPath := flags.String("audio", "", "add a WAV file as an audio track")
	palettePath := flags.String("palette", "", "GIMP .gpl palette for the theme")
	soundFont := flags.String("soundfont", "", "play through a .sf2 SoundFont instead of a MIDI port")
	debugLog := flags.Bool("debug", false, "write a debug log")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: go-arrange [flags]\n       go-arrange login|signup|logout|whoami|pull\n\n")
		flags.PrintDefaults()
	}
	flags.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	if *debugLog {
		if err := debug.Enable("", "debug"); err != nil {
			return err
		}
	}
	defer debug.Disable()

	palette := theme.DefaultPalette()
	if *palettePath != "" {
		if palette, err = theme.LoadGPL(*palettePath); err != nil {
			return err
		}
	}
	th := theme.New(palette)
	widgets.SetTheme(th)

	project, err := openProject(e, *projectName)
	if err != nil {
		return err
	}
	if err := addFiles(e.cfg, project, *midiPath, *audioPath); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = debug.WithContext(ctx)

	devices := midi.NewDeviceManager(e.cfg.MIDI.InputPort)
	go devices.Run(ctx)

	var engine instrument.Engine = instrument.NewRecordingEngine()
	outPorts := midi.OutPorts()
	if len(outPorts) > 0 {
		send, err := devices.Sender(e.cfg.MIDI.OutputPort)
		if err != nil {
			debug.Warn("midi", err)
		} else {
			engine = instrument.NewMIDIOutEngine(send)
		}
	}
	if *soundFont == "" {
		*soundFont = e.cfg.MIDI.SoundFont
	}
	if *soundFont != "" {
		sf, speaker, err := openSoundFont(*soundFont)
		if err != nil {
			return err
		}
		defer speaker.Close()
		engine = sf
	}
	instruments := instrument.NewManager(engine, project)
	defer instruments.Close()

	m := tui.NewModel(tui.Options{
		Context:     ctx,
		Project:     project,
		Config:      e.cfg,
		Library:     e.library,
		Instruments: instruments,
		Devices:     devices,
		Session:     e.session,
		Client:      e.client,
		Theme:       th,
		OutPorts:    outPorts,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// openSoundFont builds the in-process synth and starts it on the speaker
func openSoundFont(path string) (*instrument.SoundFontEngine, *audio.Speaker, error) {
	sf, err := instrument.LoadSoundFont(path, instrument.SampleRate)
	if err != nil {
		return nil, nil, err
	}
	speaker, err := audio.OpenSpeaker(sf, sf.SampleRate())
	if err != nil {
		return nil, nil, err
	}
	debug.Log("main", "synthesizing with %s", path)
	return sf, speaker, nil
}

// openProject loads the latest save of name, or starts a new project
// seeded from the timeline config.
func openProject(e *env, name string) (*sequencer.Project, error) {
	if name != "" {
		p, err := e.library.Load(name, "")
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, sequencer.ErrNoSaves) {
			return nil, err
		}
	} else {
		name = "untitled"
	}

	p := sequencer.NewProject(name)
	c := e.cfg.Clock()
	p.BPM = c.BPM
	p.TimeSignature = c.TimeSignature
	p.PixelsPerBeat = c.PixelsPerBeat
	p.StepsPerBeat = c.StepsPerBeat
	return p, nil
}

func addFiles(cfg *config.Config, p *sequencer.Project, midiPath, audioPath string) error {
	if midiPath != "" {
		tracks, err := sequencer.ImportMIDIFile(p, midiPath)
		if err != nil {
			return err
		}
		debug.Log("main", "imported %d tracks from %s", len(tracks), midiPath)
	}
	if audioPath != "" {
		info, err := audio.ProbeFile(audioPath)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		arr := sequencer.NewArrangement(p, cfg.Timeline.LaneHeight)
		if _, err := arr.AddAudio(name, audioPath, info.Seconds()); err != nil {
			return err
		}
	}
	return nil
}
