package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-arrange/audio"
	"go-arrange/config"
	"go-arrange/midi"
	"go-arrange/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "ports":
		err = listPorts()
	case "dump":
		err = dump(os.Args[2:])
	case "import":
		err = importFile(os.Args[2:])
	case "export":
		err = export(os.Args[2:])
	case "probe":
		err = probe(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI and project tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                     - List MIDI ports")
	fmt.Println("  dump <file.mid>           - Print tempo, meter and note events")
	fmt.Println("  import <file.mid> [name]  - Save a MIDI file as a library project")
	fmt.Println("  export <project> <out>    - Write a project's latest save as MIDI")
	fmt.Println("  probe <file.wav>          - Print WAV format and duration")
}

func listPorts() error {
	type result struct{ ins, outs []string }
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: midi.InPorts(), outs: midi.OutPorts()}
	}()

	select {
	case r := <-ch:
		fmt.Println("=== MIDI Input Ports ===")
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p)
		}
		return nil
	case <-time.After(3 * time.Second):
		return fmt.Errorf("port enumeration timed out")
	}
}

func dump(args []string) error {
	flags := flag.NewFlagSet("dump", flag.ExitOnError)
	limit := flags.Int("n", 0, "print at most n events")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: miditool dump [-n count] <file.mid>")
	}

	data, err := midi.ReadFile(flags.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("bpm=%.2f meter=%s duration=%.3fs\n", data.BPM, data.TimeSignature, data.Duration())
	for i, t := range data.Tracks {
		fmt.Printf("track %d %q ch=%d program=%d notes=%d\n", i, t.Name, t.Channel, t.Instrument, len(t.Notes))
	}
	for i, ev := range data.Events() {
		if *limit > 0 && i >= *limit {
			break
		}
		fmt.Printf("  %s %s\n", ev, midi.NoteName(int(ev.Note)))
	}
	return nil
}

func library() (*sequencer.Library, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ProjectsPath()
	if err != nil {
		return nil, err
	}
	return sequencer.NewLibrary(dir, sequencer.Format(cfg.SaveFormat)), nil
}

func importFile(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: miditool import <file.mid> [project]")
	}
	path := args[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(args) == 2 {
		name = args[1]
	}

	lib, err := library()
	if err != nil {
		return err
	}
	p := sequencer.NewProject(name)
	tracks, err := sequencer.ImportMIDIFile(p, path)
	if err != nil {
		return err
	}
	info, err := lib.Save(p, "import")
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d tracks into %s/%s\n", len(tracks), name, info.Filename)
	return nil
}

func export(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: miditool export <project> <out.mid>")
	}
	lib, err := library()
	if err != nil {
		return err
	}
	p, err := lib.Load(args[0], "")
	if err != nil {
		return err
	}
	if err := sequencer.ExportMIDIFile(p, args[1]); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", args[1])
	return nil
}

func probe(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: miditool probe <file.wav>")
	}
	info, err := audio.ProbeFile(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%d Hz, %d ch, %d bit, %d frames, %s\n",
		info.SampleRate, info.Channels, info.BitDepth, info.Frames, info.Duration())
	return nil
}
