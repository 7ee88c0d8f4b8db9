package config

import "strings"

const SourceFileExt = ".jihll"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".jihll", ".jh"}

// HasSourceExt reports whether path ends in a recognized source extension
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from path
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// Built-in function names
const (
	ClockFuncName = "clock"
	SqrtFuncName  = "sqrt"
	SleepFuncName = "sleep"
	LenFuncName   = "len"
	PushFuncName  = "push"
	AtFuncName    = "at"
	StrFuncName   = "str"
	TypeFuncName  = "type"
)

// NativeNames lists every built-in that natives.disable may name
var NativeNames = []string{
	ClockFuncName, SqrtFuncName, SleepFuncName, LenFuncName,
	PushFuncName, AtFuncName, StrFuncName, TypeFuncName,
}

// Defaults
const (
	DefaultConfigFile   = "jihll.yaml"
	DefaultMaxStack     = 65536
	DefaultMaxFrames    = 4096
	DefaultLogLevel     = "info"
	DefaultPrompt       = "> "
	DefaultHistoryFile  = ".jihll_history"
	DefaultSnapshotFile = "jihll.db"
)

// ExitCommand ends an interactive session
const ExitCommand = "exit"
