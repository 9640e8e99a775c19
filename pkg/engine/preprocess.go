package engine

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites kerf Lisp source before zygomys sees it:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords never
//     collide with user variables of the same name.
//  2. Kebab-case identifiers become snake case (def-solid -> def_solid);
//     zygomys reads a bare hyphen as subtraction.
//  3. ; line comments are blanked to spaces. zygomys does not count the
//     newline that ends one of its own // comments, so passing comments
//     through would shift every later error line.
//
// Every rewrite keeps newlines where they were. String literals (double
// quoted or backticked) are copied through untouched.
func preprocessSource(source string) string {
	p := &preprocessor{src: []byte(source), out: make([]byte, 0, len(source)+len(source)/4)}
	for p.i < len(p.src) {
		switch c := p.src[p.i]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.keyword():
		case c == '-' && p.kebab():
		default:
			p.emit(1)
		}
	}
	return string(p.out)
}

type preprocessor struct {
	src []byte
	out []byte
	i   int
}

// emit copies n source bytes to the output.
func (p *preprocessor) emit(n int) {
	p.out = append(p.out, p.src[p.i:p.i+n]...)
	p.i += n
}

// quoted copies a literal delimited by q, honoring backslash escapes when
// escapes is set.
func (p *preprocessor) quoted(q byte, escapes bool) {
	p.emit(1)
	for p.i < len(p.src) && p.src[p.i] != q {
		if escapes && p.src[p.i] == '\\' && p.i+1 < len(p.src) {
			p.emit(2)
			continue
		}
		p.emit(1)
	}
	if p.i < len(p.src) {
		p.emit(1)
	}
}

// comment blanks the rest of the line, keeping its width.
func (p *preprocessor) comment() {
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.out = append(p.out, ' ')
		p.i++
	}
}

// keyword rewrites :name. The := operator is passed through. It reports
// false when the colon starts neither.
func (p *preprocessor) keyword() bool {
	if p.i+1 >= len(p.src) {
		return false
	}
	next := p.src[p.i+1]
	if next == '=' {
		p.emit(2)
		return true
	}
	if !isLetter(next) {
		return false
	}
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out = append(p.out, '"')
	p.out = append(p.out, kwPrefix...)
	p.out = append(p.out, p.src[p.i+1:j]...)
	p.out = append(p.out, '"')
	p.i = j
	return true
}

// kebab replaces a hyphen sitting between identifier characters. A minus
// operator is left alone.
func (p *preprocessor) kebab() bool {
	if p.i == 0 || p.i+1 >= len(p.src) {
		return false
	}
	if !isIdentChar(p.src[p.i-1]) || !isLetter(p.src[p.i+1]) {
		return false
	}
	p.out = append(p.out, '_')
	p.i++
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
