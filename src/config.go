package main

import (
	_ "embed" // Support for go:embed resources
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

//go:embed resources/defaultConfig.ini
var defaultConfig []byte

// Config represents the top-level config structure.
type Config struct {
	Def     string    `ini:"-"`
	IniFile *ini.File `ini:"-"`
	Config  struct {
		System    string   `ini:"System"`
		Framerate int32    `ini:"Framerate"`
		AssetDirs []string `ini:"AssetDirs" delim:","`
		StartSet  string   `ini:"StartSet"`
		MaxFrames int32    `ini:"MaxFrames"`
	} `ini:"Config"`
	Actor struct {
		WalkRate        float32 `ini:"WalkRate"`
		TurnRate        float32 `ini:"TurnRate"`
		ReflectionAngle float32 `ini:"ReflectionAngle"`
		Constrain       bool    `ini:"Constrain"`
		TalkColor       []int32 `ini:"TalkColor" delim:","`
	} `ini:"Actor"`
	Sound struct {
		Enabled      bool  `ini:"Enabled"`
		SampleRate   int32 `ini:"SampleRate"`
		MasterVolume int32 `ini:"MasterVolume"`
	} `ini:"Sound"`
	Assets struct {
		Encoding string `ini:"Encoding"`
	} `ini:"Assets"`
	Video struct {
		RenderMode string `ini:"RenderMode"`
	} `ini:"Video"`
	Debug struct {
		ConsoleRows  int    `ini:"ConsoleRows"`
		LogFile      string `ini:"LogFile"`
		StatsFile    string `ini:"StatsFile"`
		DumpCostumes bool   `ini:"DumpCostumes"`
	} `ini:"Debug"`
}

// Loads and parses the INI file into a Config struct. Values missing from
// def come from the embedded defaults.
func loadConfig(def string) (*Config, error) {
	// https://github.com/go-ini/ini/blob/main/ini.go
	options := ini.LoadOptions{
		Insensitive:                false,
		IgnoreInlineComment:        false,
		SkipUnrecognizableLines:    true,
		AllowShadows:               false,
		UnparseableSections:        []string{},
		AllowPythonMultilineValues: false,
	}

	var iniFile *ini.File
	var err error
	if fp := FileExist(def); len(fp) == 0 {
		iniFile, err = ini.LoadSources(options, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %v", err)
		}
	} else {
		iniFile, err = ini.LoadSources(options, defaultConfig, fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %v", err)
		}
	}
	var c Config
	c.Def = def
	if err := iniFile.MapTo(&c); err != nil {
		return nil, fmt.Errorf("failed to map config: %v", err)
	}
	c.IniFile = iniFile
	c.normalize()
	if def != "" {
		if err := c.Save(def); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Normalize values
func (c *Config) normalize() {
	c.Config.Framerate = Clamp(c.Config.Framerate, 1, 840)
	c.SetValueUpdate("Config", "Framerate", c.Config.Framerate)
	c.Config.MaxFrames = Max(c.Config.MaxFrames, 0)
	c.SetValueUpdate("Config", "MaxFrames", c.Config.MaxFrames)

	dirs := c.Config.AssetDirs[:0]
	for _, d := range c.Config.AssetDirs {
		d = strings.ReplaceAll(strings.TrimSpace(d), "\\", "/")
		if d != "" {
			dirs = append(dirs, strings.TrimSuffix(d, "/"))
		}
	}
	c.Config.AssetDirs = dirs
	c.SetValueUpdate("Config", "AssetDirs", strings.Join(dirs, ","))

	c.Actor.WalkRate = AbsF(c.Actor.WalkRate)
	c.SetValueUpdate("Actor", "WalkRate", c.Actor.WalkRate)
	c.Actor.ReflectionAngle = ClampF(c.Actor.ReflectionAngle, 0, 90)
	c.SetValueUpdate("Actor", "ReflectionAngle", c.Actor.ReflectionAngle)
	color := []int32{255, 255, 255}
	for i := 0; i < len(color) && i < len(c.Actor.TalkColor); i++ {
		color[i] = Clamp(c.Actor.TalkColor[i], 0, 255)
	}
	c.Actor.TalkColor = color
	c.SetValueUpdate("Actor", "TalkColor", fmt.Sprintf("%d,%d,%d", color[0], color[1], color[2]))

	switch c.Sound.SampleRate {
	case 22050, 44100, 48000:
	default:
		c.Sound.SampleRate = 44100
		c.SetValueUpdate("Sound", "SampleRate", c.Sound.SampleRate)
	}
	c.Sound.MasterVolume = Clamp(c.Sound.MasterVolume, 0, 100)
	c.SetValueUpdate("Sound", "MasterVolume", c.Sound.MasterVolume)

	if c.Debug.ConsoleRows < 1 {
		c.Debug.ConsoleRows = 1
		c.SetValueUpdate("Debug", "ConsoleRows", c.Debug.ConsoleRows)
	}
	if c.Video.RenderMode == "" {
		c.Video.RenderMode = "headless"
		c.SetValueUpdate("Video", "RenderMode", c.Video.RenderMode)
	}
}

// Frame length in milliseconds.
func (c *Config) frameTime() int32 {
	return Max(1, 1000/c.Config.Framerate)
}

// SetValueUpdate writes value back to the ini file so Save keeps it.
func (c *Config) SetValueUpdate(section, key string, value interface{}) {
	if c.IniFile == nil {
		return
	}
	c.IniFile.Section(section).Key(key).SetValue(fmt.Sprint(value))
}

// Save writes the current IniFile to disk, preserving comments and syntax.
func (c *Config) Save(file string) error {
	if c.IniFile == nil {
		return fmt.Errorf("iniFile is not initialized")
	}
	// Normalize all true/false to 1/0
	for _, section := range c.IniFile.Sections() {
		for _, key := range section.Keys() {
			if key.Value() == "true" {
				key.SetValue("1")
			} else if key.Value() == "false" {
				key.SetValue("0")
			}
		}
	}
	return c.IniFile.SaveTo(file)
}
