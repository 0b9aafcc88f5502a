package conversation

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*CLISpeaker)(nil)

// PrintFunc prints one line of assistant output.
// Matches display.UI.PrintChat.
type PrintFunc func(text string)

// CLISpeaker "speaks" by printing. Printing is synchronous, so there is
// never anything to wait for.
type CLISpeaker struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLISpeaker creates a text-only speaker.
// If printFn is nil, lines go to stdout.
func NewCLISpeaker(log *logger.Logger, printFn PrintFunc) *CLISpeaker {
	if printFn == nil {
		printFn = func(text string) {
			fmt.Println(text)
		}
	}
	return &CLISpeaker{log: log, printFn: printFn}
}

// Speak prints the text.
func (s *CLISpeaker) Speak(ctx context.Context, text string) error {
	s.log.Debug("speak (text): %s", text)
	s.printFn(text)
	return nil
}

// WaitWhileSpeaking returns immediately.
func (s *CLISpeaker) WaitWhileSpeaking(ctx context.Context) error {
	return ctx.Err()
}
