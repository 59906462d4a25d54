package till

import (
	"errors"
	"io"
	"os"
	"unicode"
)

// TokenType is an ID that correlates to the symbol a token signifies.
type TokenType int

//go:generate stringer -type=TokenType -trimprefix=Token
const (
	// TokenError denotes a lexing error. The lexeme of the token contains
	// further error details.
	TokenError TokenType = iota
	// TokenEOF denotes the end of the lexing process. It is emitted once all
	// symbols of the stream are exhausted.
	TokenEOF

	// TokenNumber denotes a numeric literal, integer or fractional. The
	// digits are held in the lexeme; all till numbers are 64-bit floats.
	TokenNumber
	// TokenChar denotes a character literal. The lexeme includes the
	// surrounding single quotes.
	TokenChar
	// TokenString denotes a string literal. The lexeme includes the
	// surrounding double quotes; whitespace inside the quotes is significant.
	TokenString

	// TokenIdentifier holds any bare word that is not a keyword: a variable,
	// function or type name. No assumptions are made over the identifier, and
	// it might be undeclared.
	TokenIdentifier
	// TokenFunc denotes the 'func' keyword.
	TokenFunc
	// TokenIf denotes the 'if' keyword.
	TokenIf
	// TokenWhile denotes the 'while' keyword.
	TokenWhile
	// TokenReturn denotes the 'return' keyword.
	TokenReturn
	// TokenDisplay denotes the 'display' keyword.
	TokenDisplay
	// TokenTrue denotes the 'true' boolean literal keyword.
	TokenTrue
	// TokenFalse denotes the 'false' boolean literal keyword.
	TokenFalse

	// TokenPlus denotes the plus (+) symbol.
	TokenPlus
	// TokenMinus denotes the minus (-) symbol.
	TokenMinus
	// TokenMultiply denotes the asterisk or multiplication (*) symbol.
	TokenMultiply
	// TokenDivide denotes the forward-slash or division (/) symbol.
	TokenDivide

	// TokenDeclaration denotes the declaration (:=) symbol.
	TokenDeclaration
	// TokenAssign denotes the assignment (=) symbol.
	TokenAssign
	// TokenEquals denotes the equality comparison (==) symbol.
	TokenEquals
	// TokenGreaterThan denotes the greater-than (>) symbol.
	TokenGreaterThan
	// TokenLessThan denotes the less-than (<) symbol.
	TokenLessThan
	// TokenNot denotes the boolean not (!) symbol.
	TokenNot
	// TokenArrow denotes the return-type arrow (->) symbol.
	TokenArrow

	// TokenLineComment matches the line comment symbol (//) and holds the
	// comment text until the next new-line in its lexeme.
	TokenLineComment
	// TokenOpenParentheses matches the opening parenthesis symbol.
	TokenOpenParentheses
	// TokenCloseParentheses matches the closing parenthesis symbol.
	TokenCloseParentheses
	// TokenOpenCurly matches the opening curly bracket symbol ('{').
	TokenOpenCurly
	// TokenCloseCurly matches the closing curly bracket symbol ('}').
	TokenCloseCurly
	// TokenComma denotes the comma symbol (',').
	TokenComma
)

// keywordTable holds all the defined keywords and their respective token.
// It's used to look up whether an identifier corresponds to a keyword.
var keywordTable = map[string]TokenType{
	"func":    TokenFunc,
	"if":      TokenIf,
	"while":   TokenWhile,
	"return":  TokenReturn,
	"display": TokenDisplay,
	"true":    TokenTrue,
	"false":   TokenFalse,
}

// LexKey keys the states of the till lexer configuration.
type LexKey int

const (
	keyInitial LexKey = iota
	keyNumber
	keyPotentialReal
	keyReal
	keyIdentifier
	keyPlus
	keyMinus
	keyArrow
	keyMultiply
	keySlash
	keyLineComment
	keyColon
	keyDeclaration
	keyAssign
	keyEquals
	keyGreater
	keyLess
	keyNot
	keyOpenParen
	keyCloseParen
	keyOpenCurly
	keyCloseCurly
	keyComma
	keyCharStart
	keyCharInner
	keyCharEnd
	keyStringInner
	keyStringEnd
)

func isDigit(chr rune) bool { return '0' <= chr && chr <= '9' }

func isIdentChar(chr rune) bool {
	return unicode.IsLetter(chr) || isDigit(chr) || chr == '_'
}

func identifierToken(lexeme string) TokenType {
	if t, ok := keywordTable[lexeme]; ok {
		return t
	}

	return TokenIdentifier
}

// SyntaxStates builds the state-machine configuration that makes the generic
// lexer engine lex till source text.
func SyntaxStates() States[LexKey, TokenType] {
	return States[LexKey, TokenType]{
		keyInitial: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{ByFunc(isDigit), To(keyNumber)},
				{ByFunc(func(chr rune) bool { return unicode.IsLetter(chr) || chr == '_' }), To(keyIdentifier)},
				{ByChar('+'), To(keyPlus)},
				{ByChar('-'), To(keyMinus)},
				{ByChar('*'), To(keyMultiply)},
				{ByChar('/'), To(keySlash)},
				{ByChar(':'), To(keyColon)},
				{ByChar('='), To(keyAssign)},
				{ByChar('>'), To(keyGreater)},
				{ByChar('<'), To(keyLess)},
				{ByChar('!'), To(keyNot)},
				{ByChar('('), To(keyOpenParen)},
				{ByChar(')'), To(keyCloseParen)},
				{ByChar('{'), To(keyOpenCurly)},
				{ByChar('}'), To(keyCloseCurly)},
				{ByChar(','), To(keyComma)},
				{ByChar('\''), To(keyCharStart)},
				{ByChar('"'), To(keyStringInner)},
			},
		},
		keyNumber: {
			Parse: Emit(TokenNumber),
			Transitions: []Transition[LexKey]{
				{ByFunc(isDigit), ToSelf[LexKey]()},
				{ByChar('.'), To(keyPotentialReal)},
			},
		},
		// A trailing dot is not a number on its own; digits must follow.
		keyPotentialReal: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{ByFunc(isDigit), To(keyReal)},
			},
		},
		keyReal: {
			Parse: Emit(TokenNumber),
			Transitions: []Transition[LexKey]{
				{ByFunc(isDigit), ToSelf[LexKey]()},
			},
		},
		keyIdentifier: {
			Parse: EmitBy(identifierToken),
			Transitions: []Transition[LexKey]{
				{ByFunc(isIdentChar), ToSelf[LexKey]()},
			},
		},
		keyPlus: {Parse: Emit(TokenPlus)},
		keyMinus: {
			Parse: Emit(TokenMinus),
			Transitions: []Transition[LexKey]{
				{ByChar('>'), To(keyArrow)},
			},
		},
		keyArrow:    {Parse: Emit(TokenArrow)},
		keyMultiply: {Parse: Emit(TokenMultiply)},
		keySlash: {
			Parse: Emit(TokenDivide),
			Transitions: []Transition[LexKey]{
				{ByChar('/'), To(keyLineComment)},
			},
		},
		keyLineComment: {
			Parse: Emit(TokenLineComment),
			Transitions: []Transition[LexKey]{
				{ByFunc(func(chr rune) bool { return chr != '\n' }), ToSelf[LexKey]()},
			},
		},
		keyColon: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{ByChar('='), To(keyDeclaration)},
			},
		},
		keyDeclaration: {Parse: Emit(TokenDeclaration)},
		keyAssign: {
			Parse: Emit(TokenAssign),
			Transitions: []Transition[LexKey]{
				{ByChar('='), To(keyEquals)},
			},
		},
		keyEquals:     {Parse: Emit(TokenEquals)},
		keyGreater:    {Parse: Emit(TokenGreaterThan)},
		keyLess:       {Parse: Emit(TokenLessThan)},
		keyNot:        {Parse: Emit(TokenNot)},
		keyOpenParen:  {Parse: Emit(TokenOpenParentheses)},
		keyCloseParen: {Parse: Emit(TokenCloseParentheses)},
		keyOpenCurly:  {Parse: Emit(TokenOpenCurly)},
		keyCloseCurly: {Parse: Emit(TokenCloseCurly)},
		keyComma:      {Parse: Emit(TokenComma)},
		keyCharStart: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{Any(), To(keyCharInner)},
			},
		},
		keyCharInner: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{ByChar('\''), To(keyCharEnd)},
			},
		},
		keyCharEnd: {Parse: Emit(TokenChar)},
		keyStringInner: {
			Parse: Invalid[TokenType](),
			Transitions: []Transition[LexKey]{
				{ByChar('"'), To(keyStringEnd)},
				{Any(), ToSelf[LexKey]()},
			},
		},
		keyStringEnd: {Parse: Emit(TokenString)},
	}
}

// NewSyntaxLexer creates the till-configured lexer: the SyntaxStates state
// machine with whitespace ignored in the initial state.
func NewSyntaxLexer() *Lexer[LexKey, TokenType] {
	return NewLexer(SyntaxStates(), keyInitial, " \t\r\n")
}

// Token is a till lexical token as consumed by the parser: a token type, the
// lexeme it was produced from, and the position it was found at.
//
// If a token has type TokenError its lexeme contains a description of the
// error. If a token is of type TokenEOF it marks the end of the stream.
type Token struct {
	Typ    TokenType
	Lexeme string
	Pos    Position
}

// isValid returns false if the token is of type TokenEOF or TokenError, and
// true otherwise.
func (t Token) isValid() bool {
	return t.Typ != TokenEOF && t.Typ != TokenError
}

// isComment returns true only if the token is of type TokenLineComment.
func (t Token) isComment() bool {
	return t.Typ == TokenLineComment
}

// Tokenizer defines a lexing stage that transforms a stream of text into a
// sequential series of Tokens.
type Tokenizer interface {
	// Do starts lexing on a goroutine, and sends the completed tokens to the
	// results channel.
	Do()

	// Get fetches the next available token. If no token is available it
	// blocks until one is ready.
	Get() Token

	// GetFilename returns the name of the current working file.
	GetFilename() string
}

// SyntaxTokenizer implements the Tokenizer interface on top of the generic
// engine configured for till. A SyntaxTokenizer should never be reused, and
// it's not thread-safe.
type SyntaxTokenizer struct {
	filename string
	strm     *Stream
	it       *TokenIterator[LexKey, TokenType]
	output   chan Token
}

// NewSyntaxTokenizer creates a tokenizer and sets the stream to the file at
// the provided path.
func NewSyntaxTokenizer(filename string) (*SyntaxTokenizer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	t := NewSyntaxTokenizerFromReader(f)
	t.filename = filename

	return t, nil
}

// NewSyntaxTokenizerFromReader creates a tokenizer reading from the provided
// reader.
func NewSyntaxTokenizerFromReader(reader io.Reader) *SyntaxTokenizer {
	strm := NewStream(reader)

	return &SyntaxTokenizer{
		strm:   strm,
		it:     NewSyntaxLexer().Input(strm),
		output: make(chan Token, 2),
	}
}

// Chan gets the result channel.
func (t *SyntaxTokenizer) Chan() chan Token {
	return t.output
}

// Get fetches the next available token. If no token is available it blocks
// until one is ready.
func (t *SyntaxTokenizer) Get() Token {
	// Comply with the Tokenizer interface.
	return <-t.Chan()
}

// GetFilename returns the name of the current working file.
func (t *SyntaxTokenizer) GetFilename() string {
	// Comply with the Tokenizer interface.
	return t.filename
}

// Do drains the token iterator, sending the completed tokens to the results
// channel. A TokenError token followed by TokenEOF is sent if the input
// cannot be lexed; TokenEOF alone marks a clean end of the stream.
func (t *SyntaxTokenizer) Do() {
	for {
		tok, err := t.it.Next()
		if err != nil {
			t.output <- Token{Typ: TokenError, Lexeme: err.Error(), Pos: t.strm.Position()}
			break
		}

		if tok == nil {
			if chr, ok := t.strm.Peek(); ok {
				// The engine yields end-of-stream when a token attempt
				// consumed nothing, which happens when the very first
				// character is unexpected.
				err := &UnexpectedCharError{Char: chr, Pos: t.strm.Position()}
				t.output <- Token{Typ: TokenError, Lexeme: err.Error(), Pos: t.strm.Position()}
			}
			break
		}

		t.output <- Token{Typ: tok.Tok, Lexeme: tok.Lexeme, Pos: tok.Pos}
	}

	t.output <- Token{Typ: TokenEOF, Pos: t.strm.Position()}
	close(t.output)
}

// RunBlocking lexes the stream sequentially and blocks until the full output
// is ready or an error is encountered.
func (t *SyntaxTokenizer) RunBlocking() ([]Token, error) {
	go t.Do()

	var tokens []Token
	for tok := range t.Chan() {
		if tok.Typ == TokenEOF {
			return tokens, nil
		}

		if tok.Typ == TokenError {
			return nil, errors.New(tok.Lexeme)
		}

		tokens = append(tokens, tok)
	}

	return tokens, nil
}
