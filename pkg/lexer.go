package till

import (
	"fmt"
)

// State describes a lexing state. It can include any number of transitions to
// other states. When the lexer finds no appropriate transition from this
// state, the parse policy of the Parse member is used to yield a token. A
// lexical failure is produced if Parse is the invalid policy when a
// transition away from this state cannot be made.
type State[Key comparable, Token any] struct {
	Parse       Parse[Token]
	Transitions []Transition[Key]
}

// States maps state keys to their states. States reference each other by key
// rather than by direct pointer, so the mapping stays cycle-free.
type States[Key comparable, Token any] map[Key]State[Key, Token]

// Parse decides what happens when the lexer finds itself in a state it cannot
// transition from: either a token is yielded or a lexical failure is
// produced. Construct values with Emit, EmitBy or Invalid.
type Parse[Token any] struct {
	valid bool
	tok   Token
	fn    func(lexeme string) Token
}

// Emit yields a fixed token requiring no data from the lexeme (e.g. an
// opening bracket).
func Emit[Token any](tok Token) Parse[Token] {
	return Parse[Token]{valid: true, tok: tok}
}

// EmitBy yields a token derived from the lexeme (e.g. a number literal or an
// identifier).
func EmitBy[Token any](fn func(lexeme string) Token) Parse[Token] {
	return Parse[Token]{valid: true, fn: fn}
}

// Invalid marks a transitional state that does not produce a token on its own
// (e.g. the state after the dot of a potential fractional number).
func Invalid[Token any]() Parse[Token] {
	return Parse[Token]{}
}

// Transition describes a transition from one state to another (or to itself).
// The lexer decides whether the transition can be followed by applying its
// match criterion to the character most recently peeked from the stream.
type Transition[Key comparable] struct {
	Match Match
	To    Dest[Key]
}

// Match is the criterion by which it is decided whether the lexer should
// transition state given the most recently peeked character. Predicates must
// be pure; match order within a state's transition list is preserved.
type Match interface {
	matches(chr rune) bool
}

type matchByChar rune

func (m matchByChar) matches(chr rune) bool { return chr == rune(m) }

// ByChar matches a single character.
func ByChar(chr rune) Match { return matchByChar(chr) }

type matchByChars string

func (m matchByChars) matches(chr rune) bool {
	for _, c := range string(m) {
		if c == chr {
			return true
		}
	}
	return false
}

// ByChars matches any of a set of possible characters.
func ByChars(chars string) Match { return matchByChars(chars) }

type matchByFunc func(rune) bool

func (m matchByFunc) matches(chr rune) bool { return m(chr) }

// ByFunc matches whenever the provided predicate returns true for the peeked
// character.
func ByFunc(fn func(chr rune) bool) Match { return matchByFunc(fn) }

type matchAny struct{}

func (matchAny) matches(rune) bool { return true }

// Any always matches.
func Any() Match { return matchAny{} }

// Dest indicates how the lexer should transition state: either remain on the
// current state or move to the state with a given key.
type Dest[Key comparable] struct {
	toSelf bool
	key    Key
}

// ToSelf remains on the current state.
func ToSelf[Key comparable]() Dest[Key] {
	return Dest[Key]{toSelf: true}
}

// To transitions to the state with the given key.
func To[Key comparable](key Key) Dest[Key] {
	return Dest[Key]{key: key}
}

// LexToken holds a token (indicating the type and containing any extra data),
// the raw lexeme string, and the stream position from where the token was
// found.
type LexToken[Token any] struct {
	Tok    Token
	Lexeme string
	Pos    Position
}

// UnexpectedCharError is the lexical failure produced when a character is
// encountered from which the current state has no transition and which cannot
// be ignored.
type UnexpectedCharError struct {
	Char   rune
	Lexeme string
	Pos    Position
}

func (e *UnexpectedCharError) Error() string {
	return fmt.Sprintf("encountered unexpected character %q while analysing lexeme %q at %s", e.Char, e.Lexeme, e.Pos)
}

// UnexpectedEOFError is the lexical failure produced when the stream ends
// while the lexer is in a state that cannot yield a token.
type UnexpectedEOFError struct {
	Lexeme string
	Pos    Position
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("encountered unexpected end of file while analysing lexeme %q at %s", e.Lexeme, e.Pos)
}

// Lexer is a generic lexical analysis engine. It is not specific to lexing
// till: the states, the initial state key and the set of ignored characters
// are all supplied by the caller (see syntax.go for how it is configured for
// till itself).
type Lexer[Key comparable, Token any] struct {
	states  States[Key, Token]
	initial Key
	ignored string
}

// NewLexer creates a lexer with its own set of states. Characters in ignored
// are skipped, but only while the lexer is in the initial state; this lets
// whitespace inside lexemes (e.g. within a string literal) stay significant
// when a state explicitly matches it.
func NewLexer[Key comparable, Token any](states States[Key, Token], initial Key, ignored string) *Lexer[Key, Token] {
	return &Lexer[Key, Token]{
		states:  states,
		initial: initial,
		ignored: ignored,
	}
}

// Input consumes an input stream, producing an iterator that yields the
// tokens found through analysis of that stream.
func (l *Lexer[Key, Token]) Input(strm *Stream) *TokenIterator[Key, Token] {
	return &TokenIterator[Key, Token]{
		lxr:  l,
		strm: strm,
	}
}

// TokenIterator lazily yields the tokens of a single input stream. Created by
// the Input method. Once a lexical failure has been returned the iterator is
// terminal: it consumes no further input and reports end of stream on
// subsequent calls.
type TokenIterator[Key comparable, Token any] struct {
	lxr    *Lexer[Key, Token]
	strm   *Stream
	failed bool
}

// Next returns the next token and lexeme in the input stream. It returns
// (nil, nil) once the end of the stream has been reached.
func (it *TokenIterator[Key, Token]) Next() (*LexToken[Token], error) {
	if it.failed {
		return nil, nil
	}

	currentKey := it.lxr.initial
	lexeme := ""

	var unexpected *rune

	for {
		chr, ok := it.strm.Peek()
		if !ok {
			break
		}

		state := it.lxr.state(currentKey)

		if newKey, ok := transitionState(currentKey, state.Transitions, chr); ok {
			lexeme += string(chr)
			it.strm.Advance()
			currentKey = newKey
			continue
		}

		if currentKey == it.lxr.initial && isIgnored(it.lxr.ignored, chr) {
			// Advance the stream but don't add the ignored character to the
			// lexeme.
			it.strm.Advance()
			continue
		}

		c := chr
		unexpected = &c
		break
	}

	if lexeme == "" {
		// Nothing added to the lexeme - the stream had already reached its
		// end.
		return nil, nil
	}

	tok, err := parseLexeme(lexeme, unexpected, it.strm.Position(), it.lxr.state(currentKey))
	if err != nil {
		it.failed = true
		return nil, err
	}

	return tok, nil
}

// state fetches a state from the state mapping, panicking should the lexer
// have been configured with a transition into an undefined state.
func (l *Lexer[Key, Token]) state(key Key) State[Key, Token] {
	state, ok := l.states[key]
	if !ok {
		panic(fmt.Sprintf("lexer transitioned into an undefined state: %v", key))
	}

	return state
}

func isIgnored(ignored string, chr rune) bool {
	for _, c := range ignored {
		if c == chr {
			return true
		}
	}
	return false
}

// transitionState attempts to transition state given a list of transitions
// and the peeked character. The first transition whose criterion accepts the
// character wins. Returns false when no appropriate transition could be found
// (to self or otherwise).
func transitionState[Key comparable](currentKey Key, transitions []Transition[Key], chr rune) (Key, bool) {
	for _, transition := range transitions {
		if !transition.Match.matches(chr) {
			continue
		}

		if transition.To.toSelf {
			return currentKey, true
		}

		return transition.To.key, true
	}

	return currentKey, false
}

// parseLexeme attempts to convert a lexeme into a token given the final lexer
// state (reached when no more transitions could be made or the input stream
// ended).
func parseLexeme[Key comparable, Token any](lexeme string, unexpected *rune, pos Position, finalState State[Key, Token]) (*LexToken[Token], error) {
	if !finalState.Parse.valid {
		if unexpected != nil {
			return nil, &UnexpectedCharError{Char: *unexpected, Lexeme: lexeme, Pos: pos}
		}

		return nil, &UnexpectedEOFError{Lexeme: lexeme, Pos: pos}
	}

	tok := finalState.Parse.tok
	if finalState.Parse.fn != nil {
		tok = finalState.Parse.fn(lexeme)
	}

	return &LexToken[Token]{Tok: tok, Lexeme: lexeme, Pos: pos}, nil
}
