package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalJSON writes the level as its name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Component identifies the part of the library emitting a log line.
type Component string

const (
	ComponentApp        Component = "app"
	ComponentSearch     Component = "search"
	ComponentMetadata   Component = "metadata"
	ComponentClient     Component = "client"
	ComponentLinkAPI    Component = "linkapi"
	ComponentRelay      Component = "relay"
	ComponentDownloader Component = "downloader"
	ComponentJSValue    Component = "jsvalue"
)

// AllComponents lists every known component in a stable order.
var AllComponents = []Component{
	ComponentApp,
	ComponentSearch,
	ComponentMetadata,
	ComponentClient,
	ComponentLinkAPI,
	ComponentRelay,
	ComponentDownloader,
	ComponentJSValue,
}

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	Timestamp  bool
}

// DefaultConfig returns the library defaults: warnings and errors from every
// component, plain text on stderr.
func DefaultConfig() *Config {
	components := make(map[Component]bool, len(AllComponents))
	for _, c := range AllComponents {
		components[c] = true
	}
	return &Config{
		Level:      WARN,
		Format:     FormatText,
		Output:     os.Stderr,
		Components: components,
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Component Component              `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes component-scoped entries to a single output.
type Logger struct {
	config *Config
	mu     sync.RWMutex
	now    func() time.Time
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Components == nil {
		config.Components = map[Component]bool{}
	}
	return &Logger{config: config, now: time.Now}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetFormat changes the log format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

// Enabled reports whether an entry at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.config.Level && l.config.Components[component]
}

func (l *Logger) log(level Level, component Component, message string, fields map[string]interface{}) {
	if !l.Enabled(level, component) {
		return
	}

	entry := Entry{
		Timestamp: l.now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	// Writers are not assumed to be safe for concurrent use.
	l.mu.Lock()
	defer l.mu.Unlock()

	var line string
	switch l.config.Format {
	case FormatJSON:
		data, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf(`{"level":%q,"component":%q,"message":%q}`, level, component, message)
		} else {
			line = string(data)
		}
	case FormatColor:
		line = l.formatLine(entry, true)
	default:
		line = l.formatLine(entry, false)
	}
	fmt.Fprintln(l.config.Output, line)
}

const (
	ansiReset = "\033[0m"
	ansiGray  = "\033[90m"
	ansiCyan  = "\033[36m"
	ansiKey   = "\033[33m"
	ansiValue = "\033[32m"
)

func (l *Logger) formatLine(entry Entry, color bool) string {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	var parts []string
	if l.config.Timestamp {
		parts = append(parts, paint(ansiGray, entry.Timestamp.Format("2006-01-02 15:04:05")))
	}
	parts = append(parts,
		paint(levelColor(entry.Level), "["+entry.Level.String()+"]"),
		paint(ansiCyan, "["+string(entry.Component)+"]"),
		entry.Message,
	)

	// Sorted so identical entries always render identically.
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, paint(ansiKey, k)+"="+paint(ansiValue, fmt.Sprintf("%v", entry.Fields[k])))
	}

	return strings.Join(parts, " ")
}

func levelColor(level Level) string {
	switch level {
	case TRACE:
		return "\033[37m"
	case DEBUG:
		return "\033[94m"
	case INFO:
		return "\033[92m"
	case WARN:
		return "\033[93m"
	case ERROR:
		return "\033[91m"
	default:
		return ansiReset
	}
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields)
}

// log merges every field map; later maps win on duplicate keys.
func (cl *ComponentLogger) log(level Level, message string, fields []map[string]interface{}) {
	var merged map[string]interface{}
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(map[string]interface{})
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.log(level, cl.component, message, merged)
}

var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(New(DefaultConfig()))
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	if logger == nil {
		logger = New(DefaultConfig())
	}
	globalLogger.Store(logger)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger.Load()
}

// WithComponent returns a component logger bound to the global logger at the
// time of the call.
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
