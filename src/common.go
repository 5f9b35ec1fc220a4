package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

type Error string

func (e Error) Error() string {
	return string(e)
}

func Abs(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}
func AbsF(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
func Min(arg ...int32) (min int32) {
	for i, x := range arg {
		if i == 0 || x < min {
			min = x
		}
	}
	return
}
func Max(arg ...int32) (max int32) {
	for i, x := range arg {
		if i == 0 || x > max {
			max = x
		}
	}
	return
}
func MinI(arg ...int) (min int) {
	for i, x := range arg {
		if i == 0 || x < min {
			min = x
		}
	}
	return
}
func MaxI(arg ...int) (max int) {
	for i, x := range arg {
		if i == 0 || x > max {
			max = x
		}
	}
	return
}
func Clamp(x, a, b int32) int32 {
	return Max(a, Min(x, b))
}
func ClampF(x, a, b float32) float32 {
	return float32(math.Max(float64(a), math.Min(float64(x), float64(b))))
}

// Parses a leading integer, ignoring whatever follows it. Returns 0 when
// the string doesn't start with a number.
func Atoi(str string) int32 {
	str = strings.TrimSpace(str)
	var n int64
	var a string
	if len(str) > 0 && (str[0] == '-' || str[0] == '+') {
		a = str[:1]
		str = str[1:]
	}
	for _, c := range str {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32 {
			n = math.MaxInt32
			break
		}
	}
	if a == "-" {
		n = -n
	}
	return int32(n)
}

// Wraps an angle in degrees into (-180, 180].
func normAngle(a float32) float32 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}

// Returns the path of filename if it exists, searching its directory
// case-insensitively when the exact name is missing. Returns "" otherwise.
func FileExist(filename string) string {
	if filename == "" {
		return ""
	}
	if _, err := os.Stat(filename); err == nil {
		return filename
	}
	dir, base := filepath.Split(filename)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}
	if dir != "" {
		if d := FileExist(filepath.Clean(dir)); d == "" {
			return ""
		} else {
			searchDir = d
			dir = d + string(filepath.Separator)
		}
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), base) {
			return dir + e.Name()
		}
	}
	return ""
}

// Looks for file in each of dirs in order, then as given.
func SearchFile(file string, dirs []string) string {
	file = strings.ReplaceAll(file, "\\", "/")
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if fp := FileExist(filepath.Join(d, file)); len(fp) > 0 {
			return fp
		}
	}
	return FileExist(file)
}
