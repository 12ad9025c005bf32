package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/internal/presentation/tui"
	"github.com/aretw0/regions/internal/validator"
	"github.com/aretw0/regions/pkg/domain"
)

const helpText = `Commands:
  <n> | <name>     select a region, or a country once a region is loaded
  region <name>    switch region
  list             show the current region
  back             leave the country details
  retry            request the selected region again
  clear            dismiss the error
  exit             start over
  help             show this help
  quit             leave
`

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// Session is an interactive terminal session over one regions.Store.
type Session struct {
	store  *regions.Store
	in     io.Reader
	out    io.Writer
	styler tui.Styler
	render func(string) (string, error)
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRenderer renders country details as markdown through render.
func WithRenderer(render func(string) (string, error)) SessionOption {
	return func(s *Session) {
		s.render = render
	}
}

// WithStyler sets the colour styler for prompts and errors.
func WithStyler(styler tui.Styler) SessionOption {
	return func(s *Session) {
		s.styler = styler
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session reading commands from in and writing to out.
// Without options it prints plain text.
func NewSession(store *regions.Store, in io.Reader, out io.Writer, opts ...SessionOption) *Session {
	s := &Session{
		store:  store,
		in:     in,
		out:    out,
		styler: tui.NewStyler(true),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until quit, end of input or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	fmt.Fprint(s.out, tui.FormatRegions(s.store.InitialRegions()))
	for {
		fmt.Fprint(s.out, s.styler.Prompt(s.promptLabel()))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(s.out)
			return err
		case line = <-lines:
		}

		err := s.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.logger.Debug("command failed", "input", line, "err", err)
			fmt.Fprintln(s.out, s.styler.Error(err.Error()))
		}
	}
}

// Execute runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	line, err := validator.SanitizeInput(line)
	if err != nil {
		return err
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "quit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return nil
	case "list", "ls":
		s.printState()
		return nil
	case "region":
		return s.selectRegion(ctx, arg)
	case "country":
		return s.selectCountry(ctx, arg)
	case "back":
		s.store.SelectCountry(ctx, domain.EmptyCountry())
		s.printState()
		return nil
	case "clear":
		s.store.ClearError(ctx)
		s.printState()
		return nil
	case "retry":
		if err := s.store.Retry(ctx); err != nil {
			return err
		}
		s.awaitCountries()
		return nil
	case "exit":
		s.store.Reset()
		printSystemMessage(s.out, "Back to the start.")
		fmt.Fprint(s.out, tui.FormatRegions(s.store.InitialRegions()))
		return nil
	}

	// Bare input picks a region first, then a country of the loaded list.
	if s.store.RegionSelected() == "" {
		return s.selectRegion(ctx, line)
	}
	return s.selectCountry(ctx, line)
}

func (s *Session) selectRegion(ctx context.Context, input string) error {
	if n, err := strconv.Atoi(input); err == nil {
		regionList := s.store.InitialRegions()
		if n < 1 || n > len(regionList) {
			return fmt.Errorf("%w: %d", domain.ErrUnknownRegion, n)
		}
		input = regionList[n-1]
	}
	if err := s.store.SelectRegion(ctx, input); err != nil {
		return err
	}
	s.awaitCountries()
	return nil
}

func (s *Session) selectCountry(ctx context.Context, input string) error {
	if n, err := strconv.Atoi(input); err == nil {
		countries := s.store.Countries()
		if n < 1 || n > len(countries) {
			return fmt.Errorf("%w: #%d", domain.ErrCountryNotFound, n)
		}
		s.store.SelectCountry(ctx, countries[n-1])
	} else if _, err := s.store.SelectCountryByName(ctx, input); err != nil {
		return err
	}

	c, _ := s.store.CountrySelected()
	s.printCountry(c)
	return nil
}

func (s *Session) awaitCountries() {
	fmt.Fprintln(s.out, s.styler.Info("Loading countries..."))
	s.store.Wait()
	s.printState()
}

func (s *Session) printState() {
	state := s.store.State()
	if msg, ok := state.ErrorMessage(); ok {
		fmt.Fprintln(s.out, s.styler.Error(msg))
	}
	fmt.Fprint(s.out, tui.FormatState(state))
}

func (s *Session) printCountry(c domain.Country) {
	if s.render != nil {
		out, err := s.render(tui.CountryMarkdown(c))
		if err == nil {
			fmt.Fprint(s.out, out)
			return
		}
		s.logger.Warn("markdown rendering failed, falling back to plain text", "err", err)
	}
	fmt.Fprint(s.out, tui.FormatCountry(c))
}

func (s *Session) promptLabel() string {
	label := s.store.RegionSelected()
	if c, ok := s.store.CountrySelected(); ok {
		label += "/" + c.Name
	}
	if label == "" {
		return "regions"
	}
	return label
}
