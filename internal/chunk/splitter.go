// Package chunk turns note text into retrieval-sized chunks and keeps the
// persisted chunk set of a note in sync with its content.
//
// Sizes are measured in bytes of UTF-8 text; cuts never split a rune.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/ragcore/internal/model"
)

// Default chunk size constants (characters).
const (
	DefaultTargetSize = 500
	DefaultMinSize    = 100
	DefaultMaxSize    = 800
	DefaultOverlap    = 50
)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// Splitter splits note text into ordered chunk strings.
// It is pure and safe for concurrent use.
type Splitter struct {
	target   int
	min      int
	max      int
	overlap  int
	maxInput int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithSizes sets the target, minimum and maximum chunk sizes.
// Non-positive values keep the defaults.
func WithSizes(target, min, max int) Option {
	return func(s *Splitter) {
		if target > 0 {
			s.target = target
		}
		if min > 0 {
			s.min = min
		}
		if max > 0 {
			s.max = max
		}
	}
}

// WithOverlap sets the overlap context carried between chunks.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithMaxInput truncates notes longer than n bytes before splitting.
func WithMaxInput(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// NewSplitter creates a splitter with the given options.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		target:  DefaultTargetSize,
		min:     DefaultMinSize,
		max:     DefaultMaxSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.max < s.target {
		s.max = s.target
	}
	if s.min > s.target {
		s.min = s.target
	}
	// Overlap must stay below MIN or a flushed chunk could be re-seeded forever.
	if s.overlap >= s.min {
		s.overlap = s.min / 2
	}
	return s
}

// NewSplitterFromConfig creates a splitter from the chunking config.
func NewSplitterFromConfig(cfg model.ChunkingConfig) *Splitter {
	return NewSplitter(
		WithSizes(cfg.TargetSize, cfg.MinSize, cfg.MaxSize),
		WithOverlap(cfg.Overlap),
		WithMaxInput(cfg.MaxNoteChars),
	)
}

// unit is a paragraph or sentence plus the separator that precedes it.
type unit struct {
	text string
	sep  string
}

// Split splits text into chunks. Degenerate input yields an empty result,
// which means "nothing to index".
func (s *Splitter) Split(text string) []string {
	text = normalize(text)
	if s.maxInput > 0 && len(text) > s.maxInput {
		text = strings.TrimSpace(truncate(text, s.maxInput))
	}
	if text == "" {
		return nil
	}

	if len(text) <= s.max {
		if len(text) < s.min {
			return nil
		}
		return []string{text}
	}

	var (
		chunks  []string
		current string
		seedLen int // length of the overlap prefix of current
	)

	flush := func(chunk string) {
		chunks = append(chunks, chunk)
		current = s.overlapContext(chunk)
		seedLen = len(current)
	}

	for _, u := range s.units(text) {
		candidate := join(current, u.sep, u.text)

		if len(candidate) > s.max && len(current) >= s.min && len(current) > seedLen {
			flush(current)
			candidate = join(current, u.sep, u.text)
		}
		// Below MIN the unit is appended even past MAX; the hard split below
		// keeps chunks bounded without producing a run of tiny chunks.
		current = candidate

		for len(current) > s.max {
			cut := s.hardBreak(current)
			head, rest := strings.TrimSpace(current[:cut]), strings.TrimSpace(current[cut:])
			flush(head)
			current = join(current, " ", rest)
		}

		if len(current) >= s.target && len(current) > seedLen {
			flush(current)
		}
	}

	if len(current) <= seedLen {
		return chunks
	}
	fresh := strings.TrimSpace(current[seedLen:])

	switch {
	case len(chunks) == 0:
		chunks = append(chunks, current)
	case len(current) >= s.min:
		chunks = append(chunks, current)
	default:
		last := chunks[len(chunks)-1]
		if merged := last + " " + fresh; len(merged) <= s.max {
			chunks[len(chunks)-1] = merged
		} else {
			chunks = append(chunks, current)
		}
	}
	return chunks
}

// units splits text into paragraphs, and paragraphs longer than the target
// size into sentences.
func (s *Splitter) units(text string) []unit {
	var units []unit
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= s.target {
			units = append(units, unit{text: para, sep: "\n\n"})
			continue
		}
		for i, sentence := range splitSentences(para) {
			sep := " "
			if i == 0 {
				sep = "\n\n"
			}
			units = append(units, unit{text: sentence, sep: sep})
		}
	}
	return units
}

// overlapContext returns the tail of chunk, at most overlap bytes long,
// starting at a sentence boundary when one exists, else at a word boundary.
func (s *Splitter) overlapContext(chunk string) string {
	if s.overlap == 0 || len(chunk) <= s.overlap {
		return ""
	}
	start := len(chunk) - s.overlap
	for start < len(chunk) && !utf8.RuneStart(chunk[start]) {
		start++
	}
	tail := chunk[start:]

	for i := 0; i < len(tail)-1; i++ {
		if isSentenceEnd(tail[i]) && isSpace(tail[i+1]) {
			if ctx := strings.TrimSpace(tail[i+1:]); ctx != "" {
				return ctx
			}
		}
	}
	if start > 0 && isSpace(chunk[start-1]) {
		return strings.TrimSpace(tail)
	}
	if i := strings.IndexAny(tail, " \t\n"); i >= 0 {
		return strings.TrimSpace(tail[i:])
	}
	return ""
}

// hardBreak picks the cut point for an oversized running chunk. It searches a
// window around the target size and prefers, in order, a sentence end, a
// clause end and whitespace. Without any boundary it cuts at the window end.
func (s *Splitter) hardBreak(text string) int {
	half := (s.max - s.target) / 2
	lo := s.target - half
	if lo < s.min {
		lo = s.min
	}
	hi := s.target + half
	if hi > s.max {
		hi = s.max
	}
	if hi > len(text) {
		hi = len(text)
	}
	if lo > hi {
		lo = hi
	}

	for _, accept := range []func(byte) bool{isSentenceEnd, isClauseEnd} {
		for p := hi; p > lo; p-- {
			if accept(text[p-1]) && (p == len(text) || isSpace(text[p])) {
				return p
			}
		}
	}
	for p := hi; p > lo; p-- {
		if isSpace(text[p-1]) {
			return p - 1
		}
	}

	cut := hi
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = hi
	}
	return cut
}

// splitSentences splits a paragraph after every terminator that is followed
// by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && isCloser(text[j]) {
			j++
		}
		if j < len(text) && !isSpace(text[j]) {
			continue
		}
		if sentence := strings.TrimSpace(text[start:j]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = j
		i = j - 1
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

func join(current, sep, next string) string {
	switch {
	case current == "":
		return next
	case next == "":
		return current
	}
	return current + sep + next
}

func truncate(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func isSentenceEnd(b byte) bool { return b == '.' || b == '!' || b == '?' }

func isClauseEnd(b byte) bool { return b == ',' || b == ';' }

func isCloser(b byte) bool { return b == '"' || b == '\'' || b == ')' || b == ']' }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }
