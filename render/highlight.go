package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// highlight writes code as a chroma-classed <pre>. Languages chroma does not
// know, and tokenizer failures, fall back to an escaped plain block.
func (r *Renderer) highlight(buf *bytes.Buffer, code, lang string) {
	lexer := lexerFor(lang)
	if lexer != nil {
		it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
		if err == nil {
			var out bytes.Buffer
			if err := r.formatter.Format(&out, r.style, it); err == nil {
				buf.Write(out.Bytes())
				return
			}
		}
	}
	buf.WriteString(`<pre class="code-block"><code`)
	if lang != "" {
		buf.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	buf.WriteString(">" + html.EscapeString(code) + "</code></pre>")
}

// lexerFor maps a Notion language name to a chroma lexer.
func lexerFor(lang string) chroma.Lexer {
	name := strings.ToLower(strings.TrimSpace(lang))
	switch name {
	case "", "plain text":
		return nil
	case "c++":
		name = "cpp"
	case "c#":
		name = "csharp"
	case "shell":
		name = "bash"
	}
	return lexers.Get(name)
}
