package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline terminates a logical line.
	Newline
	// Indent opens a block; zero width.
	Indent
	// Dedent closes a block; zero width.
	Dedent

	// Name represents an identifier token.
	Name
	// Number is any numeric literal (int, float, imaginary).
	Number
	// String is one string literal including prefix and quotes.
	String

	keywordBegin
	KwFalse    // False
	KwNone     // None
	KwTrue     // True
	KwAnd      // and
	KwAs       // as
	KwAssert   // assert
	KwAsync    // async
	KwAwait    // await
	KwBreak    // break
	KwClass    // class
	KwContinue // continue
	KwDef      // def
	KwDel      // del
	KwElif     // elif
	KwElse     // else
	KwExcept   // except
	KwFinally  // finally
	KwFor      // for
	KwFrom     // from
	KwGlobal   // global
	KwIf       // if
	KwImport   // import
	KwIn       // in
	KwIs       // is
	KwLambda   // lambda
	KwNonlocal // nonlocal
	KwNot      // not
	KwOr       // or
	KwPass     // pass
	KwRaise    // raise
	KwReturn   // return
	KwTry      // try
	KwWhile    // while
	KwWith     // with
	KwYield    // yield
	keywordEnd

	operatorBegin
	Plus          // +
	Minus         // -
	Star          // *
	DoubleStar    // **
	Slash         // /
	DoubleSlash   // //
	Percent       // %
	At            // @
	Shl           // <<
	Shr           // >>
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	ColonEq       // :=
	Lt            // <
	Gt            // >
	LtEq          // <=
	GtEq          // >=
	EqEq          // ==
	NotEq         // !=
	LParen        // (
	RParen        // )
	LBracket      // [
	RBracket      // ]
	LBrace        // {
	RBrace        // }
	Comma         // ,
	Colon         // :
	Dot           // .
	Semicolon     // ;
	Arrow         // ->
	Assign        // =
	PlusEq        // +=
	MinusEq       // -=
	StarEq        // *=
	SlashEq       // /=
	DoubleSlashEq // //=
	PercentEq     // %=
	AtEq          // @=
	AmpEq         // &=
	PipeEq        // |=
	CaretEq       // ^=
	ShlEq         // <<=
	ShrEq         // >>=
	DoubleStarEq  // **=
	Ellipsis      // ...
	operatorEnd
)

var kindNames = [...]string{
	Invalid: "Invalid", EOF: "EOF", Newline: "Newline", Indent: "Indent", Dedent: "Dedent",
	Name: "Name", Number: "Number", String: "String",
}

// String returns a stable name for diagnostics and token dumps.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	if k.IsKeyword() {
		return "Kw(" + keywordText[k] + ")"
	}
	if k.IsOperator() {
		return "Op(" + operatorText[k] + ")"
	}
	return "Kind(?)"
}

// IsKeyword reports whether k is a hard keyword.
func (k Kind) IsKeyword() bool { return k > keywordBegin && k < keywordEnd }

// IsOperator reports whether k is an operator or delimiter.
func (k Kind) IsOperator() bool { return k > operatorBegin && k < operatorEnd }

// IsAugAssign reports whether k is an augmented assignment operator.
func (k Kind) IsAugAssign() bool {
	switch k {
	case PlusEq, MinusEq, StarEq, SlashEq, DoubleSlashEq, PercentEq, AtEq,
		AmpEq, PipeEq, CaretEq, ShlEq, ShrEq, DoubleStarEq:
		return true
	default:
		return false
	}
}

// IsOpenBracket reports whether k opens a bracket pair.
func (k Kind) IsOpenBracket() bool { return k == LParen || k == LBracket || k == LBrace }

// IsCloseBracket reports whether k closes a bracket pair.
func (k Kind) IsCloseBracket() bool { return k == RParen || k == RBracket || k == RBrace }
