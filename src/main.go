package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var Version = "development"
var BuildTime = "" // Set automatically by GitHub Actions

// Checks if error is not null, if there is an error it displays a error dialogue box and crashes the program.
func chk(err error) {
	if err != nil {
		ShowErrorDialog(err.Error())
		panic(err)
	}
}

func createLog(p string) *os.File {
	f, err := os.Create(p)
	if err != nil {
		panic(err)
	}
	return f
}
func closeLog(f *os.File) {
	f.Close()
}

func main() {
	// Make save directories, if they don't exist
	os.Mkdir("save", os.ModeSticky|0755)
	os.Mkdir("save/logs", os.ModeSticky|0755)

	processCommandLine()

	// Ensure cmdFlags exists even when there are no CLI args,
	// since we assign defaults below.
	if sys.cmdFlags == nil {
		sys.cmdFlags = make(map[string]string)
	}

	// Config file path
	if _, ok := sys.cmdFlags["-config"]; !ok {
		sys.cmdFlags["-config"] = "save/config.ini"
	}
	if cfg, err := loadConfig(sys.cmdFlags["-config"]); err != nil {
		chk(err)
	} else {
		sys.cfg = *cfg
	}
	if v, ok := sys.cmdFlags["-script"]; ok {
		sys.cfg.Config.System = v
	}
	if v, ok := sys.cmdFlags["-frames"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			sys.cfg.Config.MaxFrames = Max(int32(n), 0)
		}
	}
	if v, ok := sys.cmdFlags["-stats"]; ok {
		sys.statsFile = v
	}
	logFile := sys.cfg.Debug.LogFile
	if v, ok := sys.cmdFlags["-log"]; ok {
		logFile = v
	}
	if logFile != "" {
		f, err := sys.openLogFile(logFile)
		chk(err)
		defer closeLog(f)
	}

	// Check if the main lua file exists.
	if ftemp, err1 := os.Open(sys.cfg.Config.System); err1 != nil {
		var err2 = Error(
			"Main lua file \"" + sys.cfg.Config.System + "\" error." +
				"\n" + err1.Error(),
		)
		ShowErrorDialog(err2.Error())
		panic(err2)
	} else {
		ftemp.Close()
	}

	l, err := sys.init()
	chk(err)
	sys.luaLState = l
	defer sys.shutdown()

	// The script sets up the scene; the remaining frames run here.
	if err := sys.luaLState.DoFile(sys.cfg.Config.System); err != nil {
		if !isGameEnd(err) {
			// Display error logs.
			errorLog := createLog("save/logs/engine.log")
			defer closeLog(errorLog)

			// Write version and build time at the top
			fmt.Fprintf(errorLog, "Version: %s\nBuild Time: %s\n\nError log:\n", Version, BuildTime)

			// Write the rest of the log
			fmt.Fprintln(errorLog, err)

			ShowErrorDialog(fmt.Sprintf("%s\n\nError saved to save/logs/engine.log", err))
			panic(err)
		}
	}
	for i := int32(0); i < sys.cfg.Config.MaxFrames && !sys.gameEnd; i++ {
		sys.step()
	}
}

// Lua errors raised by endGame.
func isGameEnd(err error) bool {
	if _, ok := err.(*lua.ApiError); !ok {
		return false
	}
	errstr := strings.Split(err.Error(), "\n")[0]
	return len(errstr) >= 10 && errstr[len(errstr)-10:] == "<game end>"
}

// Loops through given comand line arguments and processes them for later use by the game
func processCommandLine() {
	// If there are command line arguments
	if len(os.Args[1:]) > 0 {
		sys.cmdFlags = make(map[string]string)
		boolFlags := map[string]bool{
			"-nosound": true,
		}
		key := ""
		r1, _ := regexp.Compile("^-[h%?]$")
		r2, _ := regexp.Compile("^-")
		// Loop through arguments
		for _, a := range os.Args[1:] {
			_, err := strconv.ParseFloat(a, 64)
			isNumber := err == nil

			// If there was a flag 'key' expecting a value, and 'a' is a number or not a flag
			if key != "" && (isNumber || !r2.MatchString(a)) {
				sys.cmdFlags[key] = a
				key = ""
			} else if r2.MatchString(a) {
				// If getting help about command line options
				if r1.MatchString(a) {
					text := `Options (case sensitive):
-h -?                   Help
-config <path>          Loads config <path> (default save/config.ini)
-script <path>          Runs Lua script <path> instead of the configured one
-frames <num>           Runs <num> frames after the script returns
-stats <path>           Saves session stats to <path>
-log <logfile>          Mirrors the engine log to <logfile>
-nosound                Disables all sound`
					fmt.Printf("Costume-GO command line options\n\n" + text + "\n")
					os.Exit(0)
				}
				if _, isBool := boolFlags[a]; isBool {
					sys.cmdFlags[a] = "true"
				} else {
					sys.cmdFlags[a] = ""
					key = a
				}
			}
		}
		// After the loop, if a key is still waiting for a value, set it to "true".
		if key != "" {
			sys.cmdFlags[key] = "true"
		}
	}
}
