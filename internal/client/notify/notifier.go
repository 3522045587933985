// Package notify defines the user-facing notification sink. Components
// receive a Notifier instead of reaching for a global, so tests can capture
// what was emitted.
package notify

import "fmt"

// Notifier delivers short, fire-and-forget messages to the user.
// Description may be empty.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
	Info(title, description string)
}

// ConsoleNotifier prints notifications to standard output. It is the sink the
// CLI shell uses.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier { return &ConsoleNotifier{} }

func (ConsoleNotifier) Success(title, description string) { printLine("ok", title, description) }
func (ConsoleNotifier) Error(title, description string)   { printLine("error", title, description) }
func (ConsoleNotifier) Info(title, description string)    { printLine("info", title, description) }

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

func printLine(kind, title, description string) {
	if description == "" {
		printlnFn(fmt.Sprintf("[%s] %s", kind, title))
		return
	}
	printlnFn(fmt.Sprintf("[%s] %s: %s", kind, title, description))
}
