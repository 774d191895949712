// Package repl implements an interactive front end that parses each input and
// shows its syntax tree or token stream.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sambeau/harvest/pkg/harvest/format"
	"github.com/sambeau/harvest/pkg/harvest/harvest"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

const PROMPT = ">> "
const PROMPT_TOKENS = "t> "
const CONTINUATION_PROMPT = ".. "

const HARVEST_LOGO = `
█░█ ▄▀█ █▀█ █░█ █▀▀ █▀ ▀█▀
█▀█ █▀█ █▀▄ ▀▄▀ ██▄ ▄█ ░█░ `

// Options configures a REPL session
type Options struct {
	Version     string
	Strict      bool
	MaxDepth    int
	HistoryFile string // defaults to a file in the temp directory
}

// mode selects what a successful parse prints
type mode int

const (
	modeTree mode = iota
	modeTokens
)

// Session holds the state of one REPL: buffered multi-line input and the
// output mode. It is independent of the terminal so it can be driven by tests.
type Session struct {
	out   io.Writer
	opts  Options
	mode  mode
	input strings.Builder
}

// NewSession creates a session writing to out
func NewSession(out io.Writer, opts Options) *Session {
	return &Session{out: out, opts: opts}
}

// Prompt returns the prompt for the next line
func (s *Session) Prompt() string {
	if s.input.Len() > 0 {
		return CONTINUATION_PROMPT
	}
	if s.mode == modeTokens {
		return PROMPT_TOKENS
	}
	return PROMPT
}

// Pending reports whether multi-line input is buffered
func (s *Session) Pending() bool {
	return s.input.Len() > 0
}

// Abort discards buffered input
func (s *Session) Abort() {
	s.input.Reset()
}

// Feed handles one line of input. It returns the complete input when a
// script was parsed (for history), and quit when the user asked to leave.
func (s *Session) Feed(line string) (complete string, quit bool) {
	trimmed := strings.TrimSpace(line)

	if s.input.Len() == 0 {
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			return "", true
		}
		// Handle REPL commands (start with :)
		if strings.HasPrefix(trimmed, ":") {
			s.command(trimmed)
			return "", false
		}
		if trimmed == "" {
			return "", false
		}
	}

	if s.input.Len() > 0 {
		s.input.WriteString("\n")
	}
	s.input.WriteString(line)

	full := s.input.String()
	if needsMoreInput(full) {
		return "", false
	}
	s.input.Reset()
	s.evaluate(full)
	return full, false
}

func (s *Session) evaluate(src string) {
	if s.mode == modeTokens {
		io.WriteString(s.out, format.Tokens(lexer.Tokenize(src)))
		return
	}

	res := harvest.Check(src, harvest.Options{Strict: s.opts.Strict, MaxDepth: s.opts.MaxDepth})
	if !res.OK() {
		for _, err := range res.Errors {
			io.WriteString(s.out, err.PrettyString())
			io.WriteString(s.out, "\n")
		}
		return
	}
	if len(res.Program.Statements) == 0 {
		io.WriteString(s.out, "OK\n")
		return
	}
	io.WriteString(s.out, format.Tree(res.Program.Statements))
}

// command handles REPL meta-commands that start with ':'
func (s *Session) command(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :tokens         Show the token stream of each input")
		fmt.Fprintln(s.out, "  :tree           Show the syntax tree of each input (default)")
		fmt.Fprintln(s.out, "  :keywords       List reserved words")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")
	case ":tokens":
		s.mode = modeTokens
		fmt.Fprintln(s.out, "Token mode ON")
	case ":tree":
		s.mode = modeTree
		fmt.Fprintln(s.out, "Tree mode ON")
	case ":keywords":
		fmt.Fprintln(s.out, strings.Join(lexer.Keywords(), " "))
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func (s *Session) banner() {
	fmt.Fprintf(s.out, "%s", HARVEST_LOGO)
	fmt.Fprintln(s.out, "v", s.opts.Version)
	fmt.Fprintln(s.out, "")
	fmt.Fprintln(s.out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(s.out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(s.out, "Type ':help' for REPL commands")
	fmt.Fprintln(s.out, "")
}

// Start runs the REPL. When in is an interactive terminal it uses line
// editing, history and tab completion; otherwise lines are read plainly.
func Start(in io.Reader, out io.Writer, opts Options) error {
	s := NewSession(out, opts)
	if f, ok := in.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		return s.interactive()
	}
	return s.plain(in)
}

func (s *Session) plain(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if _, quit := s.Feed(scanner.Text()); quit {
			return nil
		}
	}
	// Flush an unfinished script so its errors are shown
	if s.Pending() {
		full := s.input.String()
		s.input.Reset()
		s.evaluate(full)
	}
	return scanner.Err()
}

func (s *Session) interactive() error {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := s.opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".harvest_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	s.banner()

	for {
		input, err := line.Prompt(s.Prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if s.Pending() {
					fmt.Fprintln(s.out, "^C (cleared)")
				} else {
					fmt.Fprintln(s.out, "^C")
				}
				s.Abort()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		complete, quit := s.Feed(input)
		if quit {
			return nil
		}
		if complete != "" {
			line.AppendHistory(complete)
		}
	}
}

// filterCompletions returns keyword completions for the word being typed
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	// Don't complete if line ends with whitespace (including tabs from pasting)
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return nil
	}

	// Complete the trailing identifier, keeping everything before it
	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	word := line[start:]
	if word == "" {
		return nil
	}

	var matches []string
	for _, kw := range lexer.Keywords() {
		if strings.HasPrefix(kw, word) {
			matches = append(matches, line[:start]+kw)
		}
	}
	return matches
}

func isWordByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// needsMoreInput checks if the input has unclosed braces, brackets or parentheses
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	depth := 0
	inString := false
	inComment := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}

		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(input) && input[i+1] == '/' {
				inComment = true
			}
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}

	return depth > 0
}
