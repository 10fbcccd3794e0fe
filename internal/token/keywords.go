package token

var keywords = map[string]Kind{
	"False":    KwFalse,
	"None":     KwNone,
	"True":     KwTrue,
	"and":      KwAnd,
	"as":       KwAs,
	"assert":   KwAssert,
	"async":    KwAsync,
	"await":    KwAwait,
	"break":    KwBreak,
	"class":    KwClass,
	"continue": KwContinue,
	"def":      KwDef,
	"del":      KwDel,
	"elif":     KwElif,
	"else":     KwElse,
	"except":   KwExcept,
	"finally":  KwFinally,
	"for":      KwFor,
	"from":     KwFrom,
	"global":   KwGlobal,
	"if":       KwIf,
	"import":   KwImport,
	"in":       KwIn,
	"is":       KwIs,
	"lambda":   KwLambda,
	"nonlocal": KwNonlocal,
	"not":      KwNot,
	"or":       KwOr,
	"pass":     KwPass,
	"raise":    KwRaise,
	"return":   KwReturn,
	"try":      KwTry,
	"while":    KwWhile,
	"with":     KwWith,
	"yield":    KwYield,
}

var keywordText = func() map[Kind]string {
	out := make(map[Kind]string, len(keywords))
	for s, k := range keywords {
		out[k] = s
	}
	return out
}()

var operatorText = map[Kind]string{
	Plus: "+", Minus: "-", Star: "*", DoubleStar: "**", Slash: "/", DoubleSlash: "//",
	Percent: "%", At: "@", Shl: "<<", Shr: ">>", Amp: "&", Pipe: "|", Caret: "^",
	Tilde: "~", ColonEq: ":=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=", EqEq: "==",
	NotEq: "!=", LParen: "(", RParen: ")", LBracket: "[", RBracket: "]", LBrace: "{",
	RBrace: "}", Comma: ",", Colon: ":", Dot: ".", Semicolon: ";", Arrow: "->",
	Assign: "=", PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=",
	DoubleSlashEq: "//=", PercentEq: "%=", AtEq: "@=", AmpEq: "&=", PipeEq: "|=",
	CaretEq: "^=", ShlEq: "<<=", ShrEq: ">>=", DoubleStarEq: "**=", Ellipsis: "...",
}

var operators = func() map[string]Kind {
	out := make(map[string]Kind, len(operatorText))
	for k, s := range operatorText {
		out[s] = k
	}
	return out
}()

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// LookupOperator maps operator text to its kind.
func LookupOperator(text string) (Kind, bool) {
	k, ok := operators[text]
	return k, ok
}

// Text returns the canonical spelling of a keyword or operator kind.
func (k Kind) Text() string {
	if s, ok := keywordText[k]; ok {
		return s
	}
	return operatorText[k]
}
